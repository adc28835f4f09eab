package formats

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	lmath "github.com/Faultbox/bsplight/pkg/math"
)

// Octree child flags in LIGHTGRID_OCTREE.
const (
	gridNodeLeaf    = 1 << 31
	gridNodeMissing = 1 << 30
	gridCellMissing = 255
)

// maxGridCells bounds the dense size of a light grid.
const maxGridCells = 1 << 26

// LightGrid is a decoded LIGHTGRID_OCTREE lump.
type LightGrid struct {
	Step      [3]float32 // world units between cells
	Mins      [3]float32 // world position of cell (0,0,0)
	Size      lmath.IVec3
	NumStyles int
	Cells     []VolumeCell // present cells only, in file order
}

// VolumeCell is one filled light grid cell.
type VolumeCell struct {
	Pos    lmath.IVec3
	Styles lightstyle.Slots
	Colors [lightstyle.MaxSlots][3]uint8 // per slot
}

// WorldPos returns the world-space centre of a cell coordinate.
func (g *LightGrid) WorldPos(p lmath.IVec3) [3]float32 {
	return [3]float32{
		g.Mins[0] + float32(p.X)*g.Step[0],
		g.Mins[1] + float32(p.Y)*g.Step[1],
		g.Mins[2] + float32(p.Z)*g.Step[2],
	}
}

type gridNode struct {
	children [8]uint32
}

type gridLeaf struct {
	mins  lmath.IVec3
	size  lmath.IVec3
	cells []VolumeCell
}

// gridReader is a bounds-checked little-endian cursor.
type gridReader struct {
	data []byte
	pos  int
	err  bool
}

func (r *gridReader) u8() byte {
	if r.err || r.pos+1 > len(r.data) {
		r.err = true
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *gridReader) u32() uint32 {
	if r.err || r.pos+4 > len(r.data) {
		r.err = true
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *gridReader) i32() int {
	return int(int32(r.u32()))
}

func (r *gridReader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *gridReader) ivec3() lmath.IVec3 {
	return lmath.IVec3{X: r.i32(), Y: r.i32(), Z: r.i32()}
}

func (r *gridReader) vec3() [3]float32 {
	return [3]float32{r.f32(), r.f32(), r.f32()}
}

// parseLightGrid decodes a LIGHTGRID_OCTREE lump. Malformed data produces
// warnings and a best-effort grid; nil means nothing usable was found.
func parseLightGrid(data []byte, warn *warnings) *LightGrid {
	const lump = BSPXLightGrid
	r := &gridReader{data: data}

	g := &LightGrid{
		Step: r.vec3(),
		Size: r.ivec3(),
		Mins: r.vec3(),
	}
	g.NumStyles = int(r.u8())
	root := r.u32()
	if r.err {
		warn.add(lump, -1, "truncated header")
		return nil
	}
	if g.Size.X <= 0 || g.Size.Y <= 0 || g.Size.Z <= 0 || int64(g.Size.X)*int64(g.Size.Y)*int64(g.Size.Z) > maxGridCells {
		warn.add(lump, -1, "grid size %dx%dx%d unusable", g.Size.X, g.Size.Y, g.Size.Z)
		return nil
	}

	numNodes := int(r.u32())
	if r.err || numNodes < 0 || numNodes > (len(data)-r.pos)/(12+32) {
		warn.add(lump, -1, "node count %d exceeds lump", numNodes)
		return nil
	}
	nodes := make([]gridNode, numNodes)
	for i := range nodes {
		r.ivec3() // division point; leaves carry absolute bounds
		for c := range nodes[i].children {
			nodes[i].children[c] = r.u32()
		}
	}

	numLeafs := int(r.u32())
	if r.err || numLeafs < 0 || numLeafs > (len(data)-r.pos)/24 {
		warn.add(lump, -1, "leaf count %d exceeds lump", numLeafs)
		return nil
	}
	leafs := make([]gridLeaf, 0, numLeafs)
	for i := 0; i < numLeafs; i++ {
		leaf, ok := readGridLeaf(r, i, warn)
		if !ok {
			warn.add(lump, i, "truncated leaf; remaining leafs dropped")
			break
		}
		leafs = append(leafs, leaf)
	}

	reached := make([]bool, len(leafs))
	walkGridOctree(root, nodes, len(leafs), reached, warn)

	for i, leaf := range leafs {
		if !reached[i] {
			continue
		}
		outside := 0
		for _, c := range leaf.cells {
			if !g.Size.Contains(c.Pos) {
				outside++
				continue
			}
			g.Cells = append(g.Cells, c)
		}
		if outside > 0 {
			warn.add(lump, i, "%d cells outside the grid dropped", outside)
		}
	}

	return g
}

func readGridLeaf(r *gridReader, index int, warn *warnings) (gridLeaf, bool) {
	leaf := gridLeaf{mins: r.ivec3(), size: r.ivec3()}
	if r.err {
		return leaf, false
	}
	if !fitsCells(leaf.size, len(r.data)-r.pos) {
		return leaf, false
	}

	extra := 0
	for z := 0; z < leaf.size.Z; z++ {
		for y := 0; y < leaf.size.Y; y++ {
			for x := 0; x < leaf.size.X; x++ {
				n := r.u8()
				if r.err {
					return leaf, false
				}
				if n == gridCellMissing {
					continue
				}
				cell := VolumeCell{Pos: leaf.mins.Add(lmath.IVec3{X: x, Y: y, Z: z})}
				for s := 0; s < int(n); s++ {
					style := r.u8()
					rgb := [3]uint8{r.u8(), r.u8(), r.u8()}
					if r.err {
						return leaf, false
					}
					slot := cell.Styles.Len()
					if err := cell.Styles.Add(lightstyle.Style(style)); err != nil {
						extra++
						continue
					}
					cell.Colors[slot] = rgb
				}
				leaf.cells = append(leaf.cells, cell)
			}
		}
	}
	if extra > 0 {
		warn.add(BSPXLightGrid, index, "%d cell samples beyond %d styles or invalid dropped", extra, lightstyle.MaxSlots)
	}
	return leaf, true
}

// fitsCells reports whether a leaf of the given size could be stored in
// rem bytes, each cell taking at least one byte.
func fitsCells(size lmath.IVec3, rem int) bool {
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return false
	}
	if size.X > rem || size.Y > rem || size.Z > rem {
		return false
	}
	xy := int64(size.X) * int64(size.Y)
	return xy <= int64(rem) && xy*int64(size.Z) <= int64(rem)
}

// walkGridOctree marks the leafs reachable from root.
func walkGridOctree(root uint32, nodes []gridNode, numLeafs int, reached []bool, warn *warnings) {
	visited := make([]bool, len(nodes))

	var visit func(ref uint32, depth int)
	visit = func(ref uint32, depth int) {
		switch {
		case ref&gridNodeMissing != 0:
			return
		case ref&gridNodeLeaf != 0:
			i := int(ref &^ (gridNodeLeaf | gridNodeMissing))
			if i >= numLeafs {
				warn.add(BSPXLightGrid, i, "octree references missing leaf")
				return
			}
			reached[i] = true
			return
		}

		i := int(ref)
		if i >= len(nodes) {
			warn.add(BSPXLightGrid, i, "octree references missing node")
			return
		}
		if visited[i] || depth > 64 {
			warn.add(BSPXLightGrid, i, "octree node revisited")
			return
		}
		visited[i] = true
		for _, c := range nodes[i].children {
			visit(c, depth+1)
		}
	}
	visit(root, 0)
}
