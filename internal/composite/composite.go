// Package composite combines packed static light layers with the current
// lightstyle values into displayable float textures.
package composite

import (
	"context"
	"runtime"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// DefaultMinParallelRows is the row count below which compositing stays on
// the calling goroutine.
const DefaultMinParallelRows = 64

// Options controls a Compositor.
type Options struct {
	Workers         int // 0 means GOMAXPROCS
	MinParallelRows int
	SRGB            bool // decode static layers from sRGB
}

// DefaultOptions returns sRGB decoding with parallel row bands.
func DefaultOptions() Options {
	return Options{MinParallelRows: DefaultMinParallelRows, SRGB: true}
}

// Texture2D is an RGBA float32 image.
type Texture2D struct {
	Width, Height int
	Pix           []float32
}

// Texture3D is an RGBA float32 volume, x-fastest.
type Texture3D struct {
	Width, Height, Depth int
	Pix                  []float32
}

// At returns the RGBA value at (x, y).
func (t *Texture2D) At(x, y int) [4]float32 {
	i := (y*t.Width + x) * 4
	return [4]float32(t.Pix[i : i+4])
}

// At returns the RGBA value at (x, y, z).
func (t *Texture3D) At(x, y, z int) [4]float32 {
	i := ((z*t.Height+y)*t.Width + x) * 4
	return [4]float32(t.Pix[i : i+4])
}

// Compositor evaluates lightmaps against an animator table.
type Compositor struct {
	table  *lighting.Table
	opts   Options
	decode [256]float32
}

// New returns a compositor reading animators from table.
func New(table *lighting.Table, opts Options) *Compositor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MinParallelRows <= 0 {
		opts.MinParallelRows = DefaultMinParallelRows
	}
	c := &Compositor{table: table, opts: opts}
	for i := range c.decode {
		v := float32(i) / 255
		if opts.SRGB {
			v = srgbToLinear(v)
		}
		c.decode[i] = v
	}
	return c
}

func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// Decode returns the linear value of a stored byte.
func (c *Compositor) Decode(b byte) float32 {
	return c.decode[b]
}

// Table returns the animator table the compositor reads.
func (c *Compositor) Table() *lighting.Table {
	return c.table
}

// Composite2D writes the lit atlas at time t into dst, resizing it if
// needed. It fails only when ctx is cancelled.
func (c *Compositor) Composite2D(ctx context.Context, a *atlas.Atlas, t float32, dst *Texture2D) error {
	n := a.Width * a.Height * 4
	if dst.Width != a.Width || dst.Height != a.Height || len(dst.Pix) != n {
		*dst = Texture2D{Width: a.Width, Height: a.Height, Pix: make([]float32, n)}
	}
	src := source{layers: a.Layers, styles: a.Styles}
	return c.run(ctx, src, a.Width, a.Height, t, dst.Pix)
}

// Composite3D writes the lit volume at time t into dst.
func (c *Compositor) Composite3D(ctx context.Context, v *atlas.Volume, t float32, dst *Texture3D) error {
	fs := v.FullSize
	n := fs.Volume() * 4
	if dst.Width != fs.X || dst.Height != fs.Y || dst.Depth != fs.Z || len(dst.Pix) != n {
		*dst = Texture3D{Width: fs.X, Height: fs.Y, Depth: fs.Z, Pix: make([]float32, n)}
	}
	src := source{layers: v.Layers, styles: v.Styles}
	// Every (y, z) pair is one row.
	return c.run(ctx, src, fs.X, fs.Y*fs.Z, t, dst.Pix)
}

type source struct {
	layers [lightstyle.MaxSlots][]byte
	styles []byte
}

func (c *Compositor) run(ctx context.Context, src source, width, rows int, t float32, out []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var frame lighting.Frame
	c.table.Snapshot().Evaluate(t, &frame)

	if rows < c.opts.MinParallelRows || c.opts.Workers == 1 {
		c.rows(src, &frame, width, 0, rows, out)
		return nil
	}

	band := (rows + c.opts.Workers*4 - 1) / (c.opts.Workers * 4)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for y0 := 0; y0 < rows; y0 += band {
		if gctx.Err() != nil {
			break
		}
		y1 := min(y0+band, rows)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.rows(src, &frame, width, y0, y1, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// rows composites rows [y0, y1). Slots are summed in order 0..3.
func (c *Compositor) rows(src source, frame *lighting.Frame, width, y0, y1 int, out []float32) {
	for i := y0 * width; i < y1*width; i++ {
		p := i * 4
		var r, g, b float32
		for slot := 0; slot < lightstyle.MaxSlots; slot++ {
			s := src.styles[p+slot]
			if s == lightstyle.Unused {
				break
			}
			m := frame[s]
			l := src.layers[slot]
			r += c.decode[l[p]] * m.X
			g += c.decode[l[p+1]] * m.Y
			b += c.decode[l[p+2]] * m.Z
		}
		out[p], out[p+1], out[p+2], out[p+3] = r, g, b, 1
	}
}
