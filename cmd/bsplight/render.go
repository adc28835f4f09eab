package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/composite"
	"github.com/Faultbox/bsplight/internal/export"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/internal/logger"
)

func cmdRender(ctx context.Context, args []string) error {
	fs, fl := newFlagSet("render", "render [options] <map.bsp>")
	t := fs.Float64("t", 0, "Time in seconds")
	out := fs.String("o", "frame.png", "Output image; extra atlases get an _N suffix")
	volumeDir := fs.String("volume-dir", "", "Also write composited light volume slices here")
	exposure := fs.Float64("exposure", 1, "Brightness multiplier applied before 8-bit conversion")
	off := fs.String("off", "", "Comma-separated switchable light targetnames to turn off")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	cfg, err := setup(fl)
	if err != nil {
		return err
	}
	opts, err := cfg.LevelOptions(logger.Named("level"))
	if err != nil {
		return err
	}
	l, err := level.LoadFile(ctx, fs.Arg(0), opts)
	if err != nil {
		return err
	}

	table, err := cfg.NewTable()
	if err != nil {
		return err
	}
	if _, err := l.RegisterSwitchable(table); err != nil {
		return err
	}
	if err := switchOff(table, l, *off); err != nil {
		return err
	}

	c := composite.New(table, cfg.CompositeOptions())
	frame, err := l.Recomposite(ctx, c, float32(*t), nil)
	if err != nil {
		return err
	}

	tm := export.Tonemap{Exposure: float32(*exposure), SRGB: cfg.Composite.SRGB}
	for i := range frame.Atlases {
		path := *out
		if i > 0 {
			ext := filepath.Ext(path)
			path = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i, ext)
		}
		img := export.Upscale(export.Texture2DImage(&frame.Atlases[i], tm), cfg.Viewer.Scale)
		if err := export.WriteFile(path, img); err != nil {
			return err
		}
		logger.Info("frame written", zap.String("path", path), zap.Float64("t", *t))
	}

	if *volumeDir != "" && frame.Volume != nil {
		format, err := export.FormatFromPath(*out)
		if err != nil {
			return err
		}
		for z, img := range export.VolumeSlices(frame.Volume, tm) {
			path := filepath.Join(*volumeDir, fmt.Sprintf("z%03d%s", z, format.Ext()))
			if err := export.WriteFile(path, export.Upscale(img, cfg.Viewer.Scale)); err != nil {
				return err
			}
		}
		logger.Info("volume written", zap.String("dir", *volumeDir), zap.Int("slices", frame.Volume.Depth))
	}
	return nil
}

// switchOff turns off the named switchable lights of l.
func switchOff(table *lighting.Table, l *level.Level, names string) error {
	if names == "" {
		return nil
	}
	sw := l.SwitchableStyles()
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		style, ok := sw[name]
		if !ok {
			return fmt.Errorf("no switchable light named %q", name)
		}
		if err := table.Set(style, lighting.SwitchOff); err != nil {
			return err
		}
	}
	return nil
}
