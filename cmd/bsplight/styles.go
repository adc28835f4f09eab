package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/bsplight/internal/lighting"
)

func cmdStyles(args []string) error {
	fs, fl := newFlagSet("styles", "styles [options]")
	times := fs.String("t", "0", "Comma-separated sample times in seconds")
	dump := fs.Bool("dump", false, "Print the table as an animator file instead")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	cfg, err := setup(fl)
	if err != nil {
		return err
	}
	table, err := cfg.NewTable()
	if err != nil {
		return err
	}
	snap := table.Snapshot()

	if *dump {
		data, err := lighting.Marshal(snap.Animators())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	var ts []float32
	for _, s := range strings.Split(*times, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return fmt.Errorf("bad time %q: %w", s, err)
		}
		ts = append(ts, float32(v))
	}

	fmt.Printf("Table version %d, %d styles\n\n", snap.Version(), snap.Len())
	fmt.Printf("%5s %6s %6s %6s", "style", "frames", "speed", "interp")
	for _, t := range ts {
		fmt.Printf(" %14s", fmt.Sprintf("t=%g", t))
	}
	fmt.Println()

	for _, style := range snap.Styles() {
		a, _ := snap.Get(style)
		fmt.Printf("%5d %6d %6g %6g", style, len(a.Sequence), a.Speed, a.Interpolate)
		for _, t := range ts {
			v := snap.Sample(style, t)
			if v.X == v.Y && v.Y == v.Z {
				fmt.Printf(" %14.3f", v.X)
			} else {
				fmt.Printf(" %4.2f,%4.2f,%4.2f", v.X, v.Y, v.Z)
			}
		}
		fmt.Println()
	}
	return nil
}
