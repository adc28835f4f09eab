// Package level loads a BSP into packed lightmap atlases and a light volume
// and recomposites them against an animator table.
package level

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/composite"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/formats"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/pak"
)

// Options controls Load.
type Options struct {
	Name          string // display name, usually the source path
	Atlas         atlas.Options
	Volume        atlas.VolumeOptions
	SkipVolume    bool
	Lit           []byte // external .lit contents
	LightmapScale int    // 0 keeps the format default
	Logger        *zap.Logger
}

// DefaultOptions returns the default atlas and a flat volume.
func DefaultOptions() Options {
	return Options{Atlas: atlas.DefaultOptions()}
}

// Level is a loaded, packed map. It is immutable after Load.
type Level struct {
	ID       uuid.UUID
	Name     string
	BSP      *formats.BSP
	Warnings []formats.PartialDataWarning

	packed     *atlas.Result
	volume     *atlas.Volume
	styles     []lightstyle.Style
	switchable map[string]lightstyle.Style
}

// Load parses data and packs its lighting. It returns a
// *formats.FormatError or *atlas.AtlasOverflowError without a partial level.
func Load(ctx context.Context, data []byte, opts Options) (*Level, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	var parseOpts []formats.ParseOption
	if opts.Lit != nil {
		parseOpts = append(parseOpts, formats.WithLit(opts.Lit))
	}
	if opts.LightmapScale > 0 {
		parseOpts = append(parseOpts, formats.WithLightmapScale(opts.LightmapScale))
	}
	bsp, err := formats.ParseBSP(data, parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("parsing bsp: %w", err)
	}
	for _, w := range bsp.Warnings {
		log.Warn("partial lighting data", zap.String("lump", w.Lump), zap.Int("index", w.Index), zap.String("reason", w.Reason))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	atlasOpts := opts.Atlas
	atlasOpts.Logger = log
	packed, err := atlas.Pack2D(bsp.Faces, bsp.Light, atlasOpts)
	if err != nil {
		return nil, fmt.Errorf("packing lightmaps: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var volume *atlas.Volume
	if bsp.Grid != nil && !opts.SkipVolume {
		volOpts := opts.Volume
		volOpts.Logger = log
		if volume, err = atlas.PackVolume(bsp.Grid, volOpts); err != nil {
			return nil, fmt.Errorf("packing light grid: %w", err)
		}
	}

	l := &Level{
		ID:         uuid.New(),
		Name:       opts.Name,
		BSP:        bsp,
		Warnings:   bsp.Warnings,
		packed:     packed,
		volume:     volume,
		switchable: formats.SwitchableStyles(bsp.Entities),
	}
	l.styles = l.collectStyles()

	log.Info("level loaded",
		zap.String("id", l.ID.String()),
		zap.Stringer("version", bsp.Version),
		zap.Int("faces", len(packed.Regions)),
		zap.Int("atlases", len(packed.Atlases)),
		zap.Bool("volume", volume != nil),
		zap.Int("warnings", len(l.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return l, nil
}

// LoadFile reads path, which may name an archive member as
// "pak0.pak:maps/e1m1.bsp", and loads it. A sibling .lit file is used
// when opts.Lit is nil.
func LoadFile(ctx context.Context, path string, opts Options) (*Level, error) {
	data, opts, err := readFile(path, opts)
	if err != nil {
		return nil, err
	}
	return Load(ctx, data, opts)
}

func readFile(path string, opts Options) ([]byte, Options, error) {
	data, err := pak.ReadPath(path)
	if err != nil {
		return nil, opts, fmt.Errorf("reading %s: %w", path, err)
	}
	if opts.Lit == nil {
		litPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".lit"
		if lit, err := pak.ReadPath(litPath); err == nil {
			opts.Lit = lit
		}
	}
	if opts.Name == "" {
		opts.Name = path
	}
	return data, opts, nil
}

func (l *Level) collectStyles() []lightstyle.Style {
	var seen [256]bool
	for _, s := range l.packed.Styles() {
		seen[s] = true
	}
	if l.BSP.Grid != nil {
		for _, c := range l.BSP.Grid.Cells {
			for _, s := range c.Styles.Styles() {
				seen[s] = true
			}
		}
	}
	var out []lightstyle.Style
	for i, ok := range seen {
		if ok {
			out = append(out, lightstyle.Style(i))
		}
	}
	return out
}

// Atlases returns the packed static layers and style maps.
func (l *Level) Atlases() []*atlas.Atlas {
	return l.packed.Atlases
}

// Regions returns the atlas placement of every lightmapped face.
func (l *Level) Regions() map[int]atlas.Region {
	return l.packed.Regions
}

// Volume returns the packed light grid, or nil.
func (l *Level) Volume() *atlas.Volume {
	return l.volume
}

// Styles returns every style referenced by the level, ascending.
func (l *Level) Styles() []lightstyle.Style {
	return l.styles
}

// SwitchableStyles maps light targetnames to their switchable style.
func (l *Level) SwitchableStyles() map[string]lightstyle.Style {
	return l.switchable
}

// RegisterSwitchable gives every switchable style without an animator the
// SwitchOn animator and returns how many were added.
func (l *Level) RegisterSwitchable(t *lighting.Table) (int, error) {
	added := map[lightstyle.Style]lighting.Animator{}
	snap := t.Snapshot()
	for _, s := range l.switchable {
		if _, ok := snap.Get(s); !ok {
			added[s] = lighting.SwitchOn
		}
	}
	if len(added) == 0 {
		return 0, nil
	}
	return len(added), t.Replace(added)
}

// Frame holds composited output. Passing the previous Frame back to
// Recomposite reuses its buffers and skips work when nothing changed.
type Frame struct {
	Time    float32
	Atlases []composite.Texture2D
	Volume  *composite.Texture3D
	Updated bool // false when the previous output was still valid

	tracker composite.Tracker
	level   uuid.UUID
}

// Recomposite evaluates the level at time t.
func (l *Level) Recomposite(ctx context.Context, c *composite.Compositor, t float32, prev *Frame) (*Frame, error) {
	f := prev
	if f == nil || f.level != l.ID {
		f = &Frame{level: l.ID}
	}
	f.Time = t
	if !f.tracker.NeedsUpdate(c.Table().Snapshot(), l.styles) {
		f.Updated = false
		return f, nil
	}

	if len(f.Atlases) != len(l.packed.Atlases) {
		f.Atlases = make([]composite.Texture2D, len(l.packed.Atlases))
	}
	for i, a := range l.packed.Atlases {
		if err := c.Composite2D(ctx, a, t, &f.Atlases[i]); err != nil {
			f.tracker.Invalidate()
			return nil, err
		}
	}
	if l.volume != nil {
		if f.Volume == nil {
			f.Volume = &composite.Texture3D{}
		}
		if err := c.Composite3D(ctx, l.volume, t, f.Volume); err != nil {
			f.tracker.Invalidate()
			return nil, err
		}
	}
	f.Updated = true
	return f, nil
}
