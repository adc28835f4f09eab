package bsptest

import (
	"bytes"
	"encoding/binary"
)

// GridSample is one style sample of a light grid cell.
type GridSample struct {
	Style byte
	RGB   [3]byte
}

// GridLeaf is a box of cells. Cells are indexed z-major; a nil entry marks
// an occluded cell.
type GridLeaf struct {
	Mins  [3]int32
	Size  [3]int32
	Cells [][]GridSample
}

// Grid describes a LIGHTGRID_OCTREE lump.
type Grid struct {
	Step  [3]float32
	Size  [3]int32
	Mins  [3]float32
	Leafs []GridLeaf

	// Nodes, when set, are written verbatim and Root must reference them.
	// Otherwise a single node pointing at every leaf is generated.
	Nodes [][8]uint32
	Root  uint32
}

// Octree child flags.
const (
	GridLeafFlag    = 1 << 31
	GridMissingFlag = 1 << 30
)

// Bytes serializes the lump.
func (g *Grid) Bytes() []byte {
	nodes, root := g.Nodes, g.Root
	if nodes == nil {
		var children [8]uint32
		for i := range children {
			children[i] = GridMissingFlag
			if i < len(g.Leafs) {
				children[i] = GridLeafFlag | uint32(i)
			}
		}
		nodes = [][8]uint32{children}
		root = 0
	}

	var buf bytes.Buffer
	w := func(v any) { binary.Write(&buf, binary.LittleEndian, v) }

	w(g.Step)
	w(g.Size)
	w(g.Mins)
	buf.WriteByte(4)
	w(root)

	w(uint32(len(nodes)))
	for _, n := range nodes {
		w([3]int32{})
		w(n)
	}

	w(uint32(len(g.Leafs)))
	for _, l := range g.Leafs {
		w(l.Mins)
		w(l.Size)
		for _, cell := range l.Cells {
			if cell == nil {
				buf.WriteByte(255)
				continue
			}
			buf.WriteByte(byte(len(cell)))
			for _, s := range cell {
				buf.WriteByte(s.Style)
				buf.Write(s.RGB[:])
			}
		}
	}
	return buf.Bytes()
}

// LIT returns a .lit file for the given RGB payload.
func LIT(rgb []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("QLIT")
	binary.Write(&buf, binary.LittleEndian, int32(1))
	buf.Write(rgb)
	return buf.Bytes()
}
