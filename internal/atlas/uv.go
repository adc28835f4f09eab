package atlas

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/bsplight/pkg/formats"
	lmath "github.com/Faultbox/bsplight/pkg/math"
)

// LightmapUV maps luxel coordinates, as returned by
// FaceLightInfo.LuxelCoords, to atlas UV. Integer luxel coordinates land on
// texel centres. Coordinates are clamped to the region so bilinear taps
// never leave the face's padded patch.
func (r Region) LightmapUV(s, t float64, atlasW, atlasH int) [2]float32 {
	u := math32.Max(0, math32.Min(float32(s), float32(r.Width-1)))
	v := math32.Max(0, math32.Min(float32(t), float32(r.Height-1)))
	return [2]float32{
		(float32(r.X) + u + 0.5) / float32(atlasW),
		(float32(r.Y) + v + 0.5) / float32(atlasH),
	}
}

// WorldUV projects a world position on face f into atlas UV.
func (r Region) WorldUV(f *formats.FaceLightInfo, p [3]float32, atlasW, atlasH int) [2]float32 {
	s, t := f.LuxelCoords(p)
	return r.LightmapUV(s, t, atlasW, atlasH)
}

// CellUVW returns the normalized texture coordinate of the centre of grid
// cell p in direction d.
func (v *Volume) CellUVW(p lmath.IVec3, d Direction) [3]float32 {
	c := v.CellTexel(p, d)
	return [3]float32{
		(float32(c.X) + 0.5) / float32(v.FullSize.X),
		(float32(c.Y) + 0.5) / float32(v.FullSize.Y),
		(float32(c.Z) + 0.5) / float32(v.FullSize.Z),
	}
}

// WorldUVW maps a world position to the volume's normalized coordinate for
// direction d. Positions outside the grid clamp to the border cells. An
// axis with a zero or non-finite step maps to cell 0.
func (v *Volume) WorldUVW(p [3]float32, d Direction) [3]float32 {
	var g [3]float32
	size := [3]int{v.Size.X, v.Size.Y, v.Size.Z}
	for i := range g {
		if v.Step[i] == 0 || math32.IsNaN(v.Step[i]) || math32.IsInf(v.Step[i], 0) {
			continue
		}
		c := (p[i] - v.Mins[i]) / v.Step[i]
		if math32.IsNaN(c) {
			continue
		}
		g[i] = math32.Max(0, math32.Min(c, float32(size[i]-1)))
	}
	o := lmath.IVec3{}
	if v.Layout == LayoutDirectional {
		o = blockOffset[d]
	}
	return [3]float32{
		(g[0] + float32(o.X*v.Size.X) + 0.5) / float32(v.FullSize.X),
		(g[1] + float32(o.Y*v.Size.Y) + 0.5) / float32(v.FullSize.Y),
		(g[2] + float32(o.Z*v.Size.Z) + 0.5) / float32(v.FullSize.Z),
	}
}
