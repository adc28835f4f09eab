package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/export"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/logger"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// growLimit caps the atlas size tried by pack -grow.
const growLimit = 16384

func cmdPack(ctx context.Context, args []string) error {
	fs, fl := newFlagSet("pack", "pack [options] <map.bsp>")
	outDir := fs.String("o", ".", "Output directory")
	format := fs.String("format", "png", "Image format (png, webp, tga)")
	grow := fs.Bool("grow", false, "Double the atlas size until everything fits")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	cfg, err := setup(fl)
	if err != nil {
		return err
	}
	imgFormat, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	opts, err := cfg.LevelOptions(logger.Named("level"))
	if err != nil {
		return err
	}

	path := fs.Arg(0)
	l, err := loadGrowing(ctx, path, opts, *grow)
	if err != nil {
		return err
	}

	w := &packWriter{
		dir:    *outDir,
		base:   baseName(path),
		format: imgFormat,
		scale:  cfg.Viewer.Scale,
	}
	if err := w.writeLevel(l); err != nil {
		return err
	}
	logger.Info("pack complete",
		zap.String("dir", w.dir),
		zap.Int("files", w.files),
		zap.Int("atlases", len(l.Atlases())))
	return nil
}

// loadGrowing loads path, doubling the atlas size after an overflow when
// grow is set.
func loadGrowing(ctx context.Context, path string, opts level.Options, grow bool) (*level.Level, error) {
	for {
		l, err := level.LoadFile(ctx, path, opts)
		var overflow *atlas.AtlasOverflowError
		if err == nil || !grow || !errors.As(err, &overflow) || overflow.MaxDepth > 0 {
			return l, err
		}
		if opts.Atlas.MaxWidth >= growLimit && opts.Atlas.MaxHeight >= growLimit {
			return nil, err
		}
		opts.Atlas.MaxWidth = min(opts.Atlas.MaxWidth*2, growLimit)
		opts.Atlas.MaxHeight = min(opts.Atlas.MaxHeight*2, growLimit)
		logger.Warn("atlas overflow, growing",
			zap.Int("unplaced", overflow.Unplaced),
			zap.Int("width", opts.Atlas.MaxWidth),
			zap.Int("height", opts.Atlas.MaxHeight))
	}
}

func baseName(path string) string {
	if i := strings.LastIndex(path, ":"); i >= 0 && strings.HasSuffix(strings.ToLower(path[:i]), ".pak") {
		path = path[i+1:]
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type packWriter struct {
	dir    string
	base   string
	format export.Format
	scale  int
	files  int
}

func (w *packWriter) write(name string, img image.Image) error {
	path := filepath.Join(w.dir, w.base+"_"+name+w.format.Ext())
	if err := export.WriteFile(path, export.Upscale(img, w.scale)); err != nil {
		return err
	}
	w.files++
	logger.Debug("wrote image", zap.String("path", path))
	return nil
}

func (w *packWriter) writeLevel(l *level.Level) error {
	for i, a := range l.Atlases() {
		for k := 0; k < lightstyle.MaxSlots; k++ {
			if err := w.write(fmt.Sprintf("%d_slot%d", i, k), export.LayerImage(a, k)); err != nil {
				return err
			}
		}
		if err := w.write(fmt.Sprintf("%d_styles", i), export.StyleImage(a)); err != nil {
			return err
		}
	}

	if v := l.Volume(); v != nil {
		for k := 0; k < lightstyle.MaxSlots; k++ {
			for z, img := range export.VolumeLayerSlices(v, k) {
				if err := w.write(fmt.Sprintf("vol_slot%d_z%03d", k, z), img); err != nil {
					return err
				}
			}
		}
	}
	return w.writeManifest(l)
}

// manifest describes where each face landed, for engines that load the
// images directly.
type manifest struct {
	Level   string           `yaml:"level"`
	Atlases []manifestAtlas  `yaml:"atlases"`
	Faces   []manifestRegion `yaml:"faces"`
	Volume  *manifestVolume  `yaml:"volume,omitempty"`
	Styles  []int            `yaml:"styles,flow"`
}

type manifestAtlas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type manifestRegion struct {
	Face   int   `yaml:"face"`
	Atlas  int   `yaml:"atlas"`
	X      int   `yaml:"x"`
	Y      int   `yaml:"y"`
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Styles []int `yaml:"styles,flow"`
}

type manifestVolume struct {
	Size     [3]int     `yaml:"size,flow"`
	FullSize [3]int     `yaml:"full_size,flow"`
	Layout   string     `yaml:"layout"`
	Mins     [3]float32 `yaml:"mins,flow"`
	Step     [3]float32 `yaml:"step,flow"`
}

func (w *packWriter) writeManifest(l *level.Level) error {
	m := manifest{Level: l.Name, Styles: styleInts(l.Styles())}
	for _, a := range l.Atlases() {
		m.Atlases = append(m.Atlases, manifestAtlas{Width: a.Width, Height: a.Height})
	}

	regions := l.Regions()
	faces := make([]int, 0, len(regions))
	for f := range regions {
		faces = append(faces, f)
	}
	sort.Ints(faces)
	for _, f := range faces {
		r := regions[f]
		m.Faces = append(m.Faces, manifestRegion{
			Face: f, Atlas: r.Atlas,
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			Styles: styleInts(r.Styles.Styles()),
		})
	}

	if v := l.Volume(); v != nil {
		m.Volume = &manifestVolume{
			Size:     [3]int{v.Size.X, v.Size.Y, v.Size.Z},
			FullSize: [3]int{v.FullSize.X, v.FullSize.Y, v.FullSize.Z},
			Layout:   v.Layout.String(),
			Mins:     v.Mins,
			Step:     v.Step,
		}
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(w.dir, w.base+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	w.files++
	return nil
}

func styleInts(styles []lightstyle.Style) []int {
	out := make([]int, len(styles))
	for i, s := range styles {
		out[i] = int(s)
	}
	return out
}
