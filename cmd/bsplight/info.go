package main

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/logger"
	"github.com/Faultbox/bsplight/pkg/formats"
)

func cmdInfo(ctx context.Context, args []string) error {
	fs, fl := newFlagSet("info", "info [options] <map.bsp>")
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
	printInfo(message.NewPrinter(language.English), l)
	return nil
}

func printInfo(p *message.Printer, l *level.Level) {
	b := l.BSP
	p.Printf("Level:    %s\n", l.Name)
	p.Printf("ID:       %s\n", l.ID)
	p.Printf("Version:  %s\n", b.Version)
	p.Printf("Faces:    %d (%d lightmapped)\n", len(b.Faces), b.LightmappedFaces())
	if b.Light != nil {
		p.Printf("Lighting: %s, %d bytes, colored=%t\n", b.Light.Source, b.Light.Length, b.Light.Colored)
	}
	fmt.Println()

	fmt.Println("Lumps:")
	for i, lump := range b.Lumps {
		p.Printf("  %-13s %12d %12d\n", formats.LumpName(i), lump.Offset, lump.Length)
	}
	if len(b.Extensions) > 0 {
		fmt.Println("BSPX lumps:")
		for _, lump := range b.Extensions {
			p.Printf("  %-17s %8d %12d\n", lump.Name, lump.Offset, lump.Length)
		}
	}
	fmt.Println()

	// Faces per style, most used first
	usage := make(map[int]int)
	for _, f := range b.Faces {
		for _, s := range f.Styles.Styles() {
			usage[int(s)]++
		}
	}
	type styleStat struct {
		style int
		count int
	}
	var stats []styleStat
	for s, n := range usage {
		stats = append(stats, styleStat{s, n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].style < stats[j].style
	})
	fmt.Println("Faces by style:")
	for _, s := range stats {
		p.Printf("  %3d %8d\n", s.style, s.count)
	}

	if sw := l.SwitchableStyles(); len(sw) > 0 {
		names := make([]string, 0, len(sw))
		for name := range sw {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("Switchable lights:")
		for _, name := range names {
			p.Printf("  %3d %s\n", sw[name], name)
		}
	}
	fmt.Println()

	fmt.Println("Atlases:")
	for i, a := range l.Atlases() {
		p.Printf("  %d: %dx%d, %d faces\n", i, a.Width, a.Height, len(a.Faces))
	}
	if g := b.Grid; g != nil {
		p.Printf("Light grid: %dx%dx%d cells, %d present, step %v\n", g.Size.X, g.Size.Y, g.Size.Z, len(g.Cells), g.Step)
		if v := l.Volume(); v != nil {
			p.Printf("Volume:     %dx%dx%d texels (%s)\n", v.FullSize.X, v.FullSize.Y, v.FullSize.Z, v.Layout)
		}
	}

	if len(l.Warnings) > 0 {
		fmt.Println()
		p.Printf("Warnings (%d):\n", len(l.Warnings))
		for _, w := range l.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}
}
