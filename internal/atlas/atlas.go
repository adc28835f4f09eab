package atlas

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/pkg/formats"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// Default atlas limits.
const (
	DefaultMaxSize = 2048
	DefaultPadding = 1
)

// Options controls 2D packing.
type Options struct {
	MaxWidth   int
	MaxHeight  int
	Padding    int  // border texels around each patch
	MaxAtlases int  // 0 means 1
	Trim       bool // shrink to the used extent, rounded up to a power of two
	Logger     *zap.Logger
}

// DefaultOptions returns a single 2048x2048 atlas with one texel of padding.
func DefaultOptions() Options {
	return Options{
		MaxWidth:   DefaultMaxSize,
		MaxHeight:  DefaultMaxSize,
		Padding:    DefaultPadding,
		MaxAtlases: 1,
	}
}

// Region is the placement of one face's lightmap. X and Y address the first
// luxel; padding surrounds it.
type Region struct {
	Atlas   int
	X, Y    int
	Width   int
	Height  int
	Padding int
	Styles  lightstyle.Slots
}

// Atlas is one packed lightmap texture set. Every buffer is RGBA8, row
// major, Width*Height*4 bytes.
type Atlas struct {
	Width  int
	Height int
	// Layers[k] holds the samples of style slot k. Alpha is 255 where a
	// face has that slot.
	Layers [lightstyle.MaxSlots][]byte
	// Styles holds each texel's four style bytes, 255 for unused.
	Styles []byte
	Faces  []int // face indices placed here, in placement order
}

// Result is the output of Pack2D.
type Result struct {
	Atlases []*Atlas
	Regions map[int]Region // keyed by face index
}

// Styles returns every style referenced by the packed faces, ascending.
func (r *Result) Styles() []lightstyle.Style {
	var seen [256]bool
	for _, reg := range r.Regions {
		for _, s := range reg.Styles.Styles() {
			seen[s] = true
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

func (o *Options) normalize() error {
	if o.MaxWidth <= 0 || o.MaxHeight <= 0 || o.Padding < 0 || o.MaxAtlases < 0 {
		return fmt.Errorf("%w: %dx%d padding %d atlases %d", ErrInvalidOptions, o.MaxWidth, o.MaxHeight, o.Padding, o.MaxAtlases)
	}
	if o.MaxAtlases == 0 {
		o.MaxAtlases = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}

// Pack2D packs every lightmapped face into atlases. Faces without a
// lightmap are skipped. When any face does not fit, Pack2D returns an
// *AtlasOverflowError and no atlases.
func Pack2D(faces []formats.FaceLightInfo, light *formats.LightLump, opts Options) (*Result, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	byID := make(map[int]*formats.FaceLightInfo, len(faces))
	var patches []patch
	for i := range faces {
		f := &faces[i]
		if !f.HasLightmap() {
			continue
		}
		if _, dup := byID[f.Face]; dup {
			return nil, fmt.Errorf("%w: face %d listed twice", ErrInvalidOptions, f.Face)
		}
		byID[f.Face] = f
		patches = append(patches, patch{
			id:     f.Face,
			index:  len(patches),
			width:  f.Width + 2*opts.Padding,
			height: f.Height + 2*opts.Padding,
		})
	}
	total := len(patches)

	placed, unplaced, used := pack(patches, opts.MaxWidth, opts.MaxHeight, opts.MaxAtlases)
	if len(unplaced) > 0 {
		return nil, &AtlasOverflowError{
			Unplaced:  len(unplaced),
			Total:     total,
			MaxWidth:  opts.MaxWidth,
			MaxHeight: opts.MaxHeight,
		}
	}

	res := &Result{Regions: make(map[int]Region, len(placed))}
	extents := make([][2]int, used)
	for _, p := range placed {
		f := byID[p.id]
		res.Regions[p.id] = Region{
			Atlas:   p.atlas,
			X:       p.x + opts.Padding,
			Y:       p.y + opts.Padding,
			Width:   f.Width,
			Height:  f.Height,
			Padding: opts.Padding,
			Styles:  f.Styles,
		}
		e := &extents[p.atlas]
		e[0] = max(e[0], p.x+f.Width+2*opts.Padding)
		e[1] = max(e[1], p.y+f.Height+2*opts.Padding)
	}

	for i := 0; i < used; i++ {
		w, h := opts.MaxWidth, opts.MaxHeight
		if opts.Trim {
			w = min(nextPow2(extents[i][0]), w)
			h = min(nextPow2(extents[i][1]), h)
		}
		res.Atlases = append(res.Atlases, newAtlas(w, h))
	}

	for _, p := range placed {
		a := res.Atlases[p.atlas]
		a.Faces = append(a.Faces, p.id)
		a.blit(byID[p.id], light, res.Regions[p.id])
	}

	opts.Logger.Debug("packed lightmaps",
		zap.Int("faces", total),
		zap.Int("atlases", used),
		zap.Int("padding", opts.Padding))
	return res, nil
}

func newAtlas(width, height int) *Atlas {
	a := &Atlas{Width: width, Height: height}
	for k := range a.Layers {
		a.Layers[k] = make([]byte, width*height*4)
	}
	a.Styles = make([]byte, width*height*4)
	for i := range a.Styles {
		a.Styles[i] = lightstyle.Unused
	}
	return a
}

// blit copies a face's samples and styles into its region, replicating the
// outermost texels into the padding.
func (a *Atlas) blit(f *formats.FaceLightInfo, light *formats.LightLump, r Region) {
	styles := f.Styles.Bytes()
	pad := r.Padding

	for y := -pad; y < r.Height+pad; y++ {
		sy := clamp(y, 0, r.Height-1)
		for x := -pad; x < r.Width+pad; x++ {
			sx := clamp(x, 0, r.Width-1)
			dst := ((r.Y+y)*a.Width + (r.X + x)) * 4
			copy(a.Styles[dst:dst+4], styles[:])

			for slot := 0; slot < f.Styles.Len(); slot++ {
				rgb := light.RGB(f.SlotOffset(slot) + sy*r.Width + sx)
				px := a.Layers[slot][dst : dst+4]
				px[0], px[1], px[2], px[3] = rgb[0], rgb[1], rgb[2], 255
			}
		}
	}
}

// Texel returns the RGBA8 value of layer k at (x, y).
func (a *Atlas) Texel(k, x, y int) [4]byte {
	i := (y*a.Width + x) * 4
	l := a.Layers[k]
	return [4]byte{l[i], l[i+1], l[i+2], l[i+3]}
}

// StyleAt returns the style slots stored at (x, y).
func (a *Atlas) StyleAt(x, y int) lightstyle.Slots {
	i := (y*a.Width + x) * 4
	s, _ := lightstyle.FromBytes([4]byte(a.Styles[i : i+4]))
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func nextPow2(v int) int {
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}
