package debug

import "github.com/Faultbox/bsplight/internal/atlas"

// RegionOutlineVertices creates line vertices outlining every face region
// placed in atlas index. Format: [x, y] per vertex, 8 vertices per region,
// in texel space. Padding is excluded so the outline hugs the samples.
func RegionOutlineVertices(regions map[int]atlas.Region, index int) []float32 {
	var out []float32
	for _, r := range regions {
		if r.Atlas != index {
			continue
		}
		minX, minY := float32(r.X), float32(r.Y)
		maxX, maxY := minX+float32(r.Width), minY+float32(r.Height)
		out = append(out,
			minX, minY, maxX, minY,
			maxX, minY, maxX, maxY,
			maxX, maxY, minX, maxY,
			minX, maxY, minX, minY,
		)
	}
	return out
}

// RegionAt returns the face whose region in atlas index contains texel
// (x, y).
func RegionAt(regions map[int]atlas.Region, index, x, y int) (face int, r atlas.Region, ok bool) {
	for f, reg := range regions {
		if reg.Atlas != index {
			continue
		}
		if x >= reg.X && x < reg.X+reg.Width && y >= reg.Y && y < reg.Y+reg.Height {
			return f, reg, true
		}
	}
	return 0, atlas.Region{}, false
}
