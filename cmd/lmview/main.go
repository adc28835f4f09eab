// lmview is an interactive viewer for packed and animated BSP lightmaps.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/composite"
	"github.com/Faultbox/bsplight/internal/config"
	"github.com/Faultbox/bsplight/internal/export"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/logger"
	"github.com/Faultbox/bsplight/internal/viewer"
)

func main() {
	fs := flag.NewFlagSet("lmview", flag.ExitOnError)
	fl := config.RegisterFlags(fs)
	shots := fs.String("screenshots", "screenshots", "Screenshot directory")
	shotFormat := fs.String("screenshot-format", "png", "Screenshot format (png, webp, tga)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: lmview [options] <map.bsp | file.pak:maps/name.bsp>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(fl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, fs.Arg(0), *shots, *shotFormat); err != nil {
		logger.Error("lmview failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config, path, shots, shotFormat string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	format, err := export.ParseFormat(shotFormat)
	if err != nil {
		return err
	}
	opts, err := cfg.LevelOptions(logger.Named("level"))
	if err != nil {
		return err
	}

	cache, err := level.NewCache(cfg.Cache.MaxLevels, logger.Named("cache"))
	if err != nil {
		return err
	}
	defer cache.Close()

	load := func(ctx context.Context, path string) (*level.Level, error) {
		return cache.LoadFile(ctx, path, opts)
	}
	lvl, err := load(ctx, path)
	if err != nil {
		return err
	}

	table, err := cfg.NewTable()
	if err != nil {
		return err
	}
	if n, err := lvl.RegisterSwitchable(table); err != nil {
		return err
	} else if n > 0 {
		logger.Info("switchable lights registered", zap.Int("count", n))
	}

	v, err := viewer.New(viewer.Config{
		Title:            "lmview",
		Width:            cfg.Viewer.Width,
		Height:           cfg.Viewer.Height,
		VSync:            cfg.Viewer.VSync,
		ScreenshotDir:    shots,
		ScreenshotFormat: format,
		Scale:            cfg.Viewer.Scale,
	}, path, lvl, composite.New(table, cfg.CompositeOptions()), load)
	if err != nil {
		return err
	}
	defer v.Close()

	return v.Run(ctx)
}
