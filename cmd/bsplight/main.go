// bsplight is a CLI utility for inspecting, packing and rendering the
// lighting of Quake-family BSP levels.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Faultbox/bsplight/internal/config"
	"github.com/Faultbox/bsplight/internal/logger"
)

// errUsage reports bad arguments; the usage text has already been printed.
var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "info":
		err = cmdInfo(ctx, args)
	case "pack":
		err = cmdPack(ctx, args)
	case "render":
		err = cmdRender(ctx, args)
	case "styles":
		err = cmdStyles(args)
	case "pak":
		err = cmdPak(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`bsplight - BSP lightmap utility

Usage:
  bsplight <command> [options]

Commands:
  info <map.bsp>                         Show lighting lumps, styles and warnings
  pack <map.bsp> -o dir [-format png]    Write packed lightmap layers and style maps
  render <map.bsp> -t seconds -o file    Composite one frame and write it
  styles [-animators file.yaml]          List animators and sample them
  pak <file.pak> [list|extract name]     Inspect Quake PACK archives

Maps may be archive members: pak0.pak:maps/e1m1.bsp

Examples:
  bsplight info id1/pak0.pak:maps/e1m1.bsp
  bsplight pack -o out -format webp -scale 4 e1m1.bsp
  bsplight render -t 0.25 -o frame.png e1m1.bsp
  bsplight styles -t 0,0.1,0.2`)
}

// newFlagSet returns a subcommand flag set carrying the shared config
// flags.
func newFlagSet(name, usage string) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: bsplight %s\n", usage)
		fs.PrintDefaults()
	}
	return fs, config.RegisterFlags(fs)
}

// setup loads the configuration and starts logging.
func setup(fl *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(fl)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}

// parse parses args and requires at least n positional arguments.
func parse(fs *flag.FlagSet, args []string, n int) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < n {
		fs.Usage()
		return errUsage
	}
	return nil
}
