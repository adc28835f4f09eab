package atlas

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/pkg/formats"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
	lmath "github.com/Faultbox/bsplight/pkg/math"
)

// Layout selects how grid cells map to volume texels.
type Layout int

const (
	// LayoutFlat stores one texel per cell.
	LayoutFlat Layout = iota
	// LayoutDirectional stores six copies of the grid, one per axis
	// direction, in a volume of size (x, 2y, 3z).
	LayoutDirectional
)

func (l Layout) String() string {
	switch l {
	case LayoutFlat:
		return "flat"
	case LayoutDirectional:
		return "directional"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout converts a layout name.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "flat", "":
		return LayoutFlat, nil
	case "directional":
		return LayoutDirectional, nil
	}
	return 0, fmt.Errorf("%w: unknown layout %q", ErrInvalidOptions, s)
}

// Direction is an axis direction of the directional layout.
type Direction int

const (
	DirX Direction = iota
	DirY
	DirZ
	DirNegX
	DirNegY
	DirNegZ
	numDirections
)

// blockOffset is the position of each direction's grid copy, in units of
// the grid size.
var blockOffset = [numDirections]lmath.IVec3{
	DirX:    {X: 0, Y: 1, Z: 0},
	DirY:    {X: 0, Y: 1, Z: 1},
	DirZ:    {X: 0, Y: 1, Z: 2},
	DirNegX: {X: 0, Y: 0, Z: 0},
	DirNegY: {X: 0, Y: 0, Z: 1},
	DirNegZ: {X: 0, Y: 0, Z: 2},
}

// Multipliers scale each direction's copy of the grid.
type Multipliers [numDirections]float32

var (
	IdentityMultipliers     = Multipliers{1, 1, 1, 1, 1, 1}
	SlightShadowMultipliers = Multipliers{
		DirX: 0.9, DirY: 0.7, DirZ: 1,
		DirNegX: 1.2, DirNegY: 1.4, DirNegZ: 1,
	}
)

// ParseMultipliers converts a multiplier preset name.
func ParseMultipliers(s string) (Multipliers, error) {
	switch s {
	case "identity", "":
		return IdentityMultipliers, nil
	case "slight-shadow":
		return SlightShadowMultipliers, nil
	}
	return Multipliers{}, fmt.Errorf("%w: unknown multipliers %q", ErrInvalidOptions, s)
}

// VolumeOptions controls PackVolume.
type VolumeOptions struct {
	MaxSize     [3]int // zero components are unbounded
	Layout      Layout
	Multipliers Multipliers // directional layout only; zero value means identity
	Flood       bool        // fill missing cells from their neighbours
	Logger      *zap.Logger
}

// Volume is a light grid laid out as 3D textures. Buffers are RGBA8,
// x-fastest, then y, then z.
type Volume struct {
	Size     lmath.IVec3 // grid cells
	FullSize lmath.IVec3 // texels, including directional copies
	Layout   Layout
	Mins     [3]float32
	Step     [3]float32
	Layers   [lightstyle.MaxSlots][]byte
	Styles   []byte
	Present  []bool // per grid cell, before flooding
}

// PackVolume places grid cells by coordinate.
func PackVolume(grid *formats.LightGrid, opts VolumeOptions) (*Volume, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil light grid", ErrInvalidOptions)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Multipliers == (Multipliers{}) {
		opts.Multipliers = IdentityMultipliers
	}

	size := grid.Size
	blocks := lmath.IVec3{X: 1, Y: 1, Z: 1}
	if opts.Layout == LayoutDirectional {
		blocks = lmath.IVec3{X: 1, Y: 2, Z: 3}
	}
	full := lmath.IVec3{X: size.X * blocks.X, Y: size.Y * blocks.Y, Z: size.Z * blocks.Z}

	if err := checkVolumeFits(grid, full, blocks, opts.MaxSize); err != nil {
		return nil, err
	}

	cells := make([]formats.VolumeCell, size.Volume())
	present := make([]bool, size.Volume())
	for _, c := range grid.Cells {
		i := cellIndex(size, c.Pos)
		cells[i] = c
		present[i] = true
	}

	filled := present
	if opts.Flood {
		cells, filled = flood(size, cells, present)
	}

	v := &Volume{
		Size:     size,
		FullSize: full,
		Layout:   opts.Layout,
		Mins:     grid.Mins,
		Step:     grid.Step,
		Present:  present,
	}
	n := full.Volume() * 4
	for k := range v.Layers {
		v.Layers[k] = make([]byte, n)
	}
	v.Styles = make([]byte, n)
	for i := range v.Styles {
		v.Styles[i] = lightstyle.Unused
	}

	dirs := []Direction{DirNegX}
	if opts.Layout == LayoutDirectional {
		dirs = []Direction{DirX, DirY, DirZ, DirNegX, DirNegY, DirNegZ}
	}
	for i, c := range cells {
		if !filled[i] {
			continue
		}
		pos := cellPos(size, i)
		for _, d := range dirs {
			mul := float32(1)
			if opts.Layout == LayoutDirectional {
				mul = opts.Multipliers[d]
			}
			v.writeCell(v.texelIndex(pos, d), c, mul)
		}
	}

	opts.Logger.Debug("packed light volume",
		zap.Int("cells", len(grid.Cells)),
		zap.Stringer("layout", opts.Layout),
		zap.Int("width", full.X), zap.Int("height", full.Y), zap.Int("depth", full.Z))
	return v, nil
}

func checkVolumeFits(grid *formats.LightGrid, full, blocks lmath.IVec3, maxSize [3]int) error {
	limit := func(axis, n, b int) int {
		if maxSize[axis] <= 0 || n <= maxSize[axis] {
			return n / b
		}
		return maxSize[axis] / b
	}
	lx := limit(0, full.X, blocks.X)
	ly := limit(1, full.Y, blocks.Y)
	lz := limit(2, full.Z, blocks.Z)
	if lx == grid.Size.X && ly == grid.Size.Y && lz == grid.Size.Z {
		return nil
	}

	fits := lmath.IVec3{X: lx, Y: ly, Z: lz}
	outside := 0
	for _, c := range grid.Cells {
		if !fits.Contains(c.Pos) {
			outside++
		}
	}
	return &AtlasOverflowError{
		Unplaced:  outside,
		Total:     len(grid.Cells),
		MaxWidth:  maxSize[0],
		MaxHeight: maxSize[1],
		MaxDepth:  max(maxSize[2], 1),
	}
}

func (v *Volume) texelIndex(p lmath.IVec3, d Direction) int {
	o := lmath.IVec3{}
	if v.Layout == LayoutDirectional {
		o = blockOffset[d]
	}
	x := p.X + o.X*v.Size.X
	y := p.Y + o.Y*v.Size.Y
	z := p.Z + o.Z*v.Size.Z
	return (z*v.FullSize.Y+y)*v.FullSize.X + x
}

func (v *Volume) writeCell(i int, c formats.VolumeCell, mul float32) {
	dst := i * 4
	b := c.Styles.Bytes()
	copy(v.Styles[dst:dst+4], b[:])
	for slot := 0; slot < c.Styles.Len(); slot++ {
		px := v.Layers[slot][dst : dst+4]
		for ch := 0; ch < 3; ch++ {
			px[ch] = scaleByte(c.Colors[slot][ch], mul)
		}
		px[3] = 255
	}
}

// Texel returns layer k at a full-size texel coordinate.
func (v *Volume) Texel(k int, p lmath.IVec3) [4]byte {
	i := ((p.Z*v.FullSize.Y+p.Y)*v.FullSize.X + p.X) * 4
	l := v.Layers[k]
	return [4]byte{l[i], l[i+1], l[i+2], l[i+3]}
}

// CellTexel returns the full-size texel coordinate of grid cell p in
// direction d. Flat volumes ignore d.
func (v *Volume) CellTexel(p lmath.IVec3, d Direction) lmath.IVec3 {
	i := v.texelIndex(p, d)
	return lmath.IVec3{
		X: i % v.FullSize.X,
		Y: (i / v.FullSize.X) % v.FullSize.Y,
		Z: i / (v.FullSize.X * v.FullSize.Y),
	}
}

func scaleByte(b byte, mul float32) byte {
	if mul == 1 {
		return b
	}
	v := float32(b)*mul + 0.5
	if v >= 255 {
		return 255
	}
	return byte(v)
}

func cellIndex(size, p lmath.IVec3) int {
	return (p.Z*size.Y+p.Y)*size.X + p.X
}

func cellPos(size lmath.IVec3, i int) lmath.IVec3 {
	return lmath.IVec3{
		X: i % size.X,
		Y: (i / size.X) % size.Y,
		Z: i / (size.X * size.Y),
	}
}

var neighbours = []lmath.IVec3{
	{X: -1}, {X: 1}, {Y: -1}, {Y: 1}, {Z: -1}, {Z: 1},
}

// flood copies the first filled neighbour, in fixed axis order, into each
// empty cell, one ring per pass, until nothing changes.
func flood(size lmath.IVec3, cells []formats.VolumeCell, present []bool) ([]formats.VolumeCell, []bool) {
	cur := append([]formats.VolumeCell(nil), cells...)
	filled := append([]bool(nil), present...)

	for {
		next := append([]formats.VolumeCell(nil), cur...)
		nextFilled := append([]bool(nil), filled...)
		changed := false

		for i := range cur {
			if filled[i] {
				continue
			}
			p := cellPos(size, i)
			for _, d := range neighbours {
				q := p.Add(d)
				if !size.Contains(q) {
					continue
				}
				j := cellIndex(size, q)
				if filled[j] {
					next[i] = cur[j]
					next[i].Pos = p
					nextFilled[i] = true
					changed = true
					break
				}
			}
		}

		cur, filled = next, nextFilled
		if !changed {
			return cur, filled
		}
	}
}
