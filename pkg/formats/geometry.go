package formats

import (
	"bytes"
	"encoding/binary"
)

// On-disk record sizes.
const (
	vertexSize    = 3 * 4
	edgeSize29    = 2 * 2
	edgeSize2     = 2 * 4
	surfEdgeSize  = 4
	texInfoSize   = 2*4*4 + 4 + 4
	faceSize29    = 2 + 2 + 4 + 2 + 2 + 4 + 4
	faceSize2     = 4 + 4 + 4 + 4 + 4 + 4 + 4
	decoupledSize = 2 + 2 + 4 + 2*4*4
)

// TexSpecial marks texinfo without a lightmap (sky, liquids).
const TexSpecial = 1

type edgeV0 struct {
	V [2]uint16
}

type edgeV1 struct {
	V [2]uint32
}

type texInfo struct {
	Vecs   [2][4]float32
	MipTex int32
	Flags  int32
}

// geometry is the subset of the level's geometry needed to size lightmaps.
type geometry struct {
	vertices  [][3]float32
	edges     [][2]uint32
	surfEdges []int32
	texInfo   []texInfo
}

// readRecords decodes a lump of fixed-size little-endian records.
func readRecords[T any](data []byte, l Lump, size int) ([]T, error) {
	if l.Length%size != 0 {
		return nil, formatError(l.Name, ErrLumpSize, "%d bytes is not a multiple of %d", l.Length, size)
	}
	out := make([]T, l.Length/size)
	if len(out) == 0 {
		return out, nil
	}
	if err := binary.Read(bytes.NewReader(l.slice(data)), binary.LittleEndian, out); err != nil {
		return nil, formatError(l.Name, ErrTruncated, "decoding %d records", len(out))
	}
	return out, nil
}

func readGeometry(data []byte, b *BSP) (*geometry, error) {
	g := &geometry{}
	var err error

	if g.vertices, err = readRecords[[3]float32](data, b.Lumps[LumpVertices], vertexSize); err != nil {
		return nil, err
	}
	if g.surfEdges, err = readRecords[int32](data, b.Lumps[LumpSurfEdges], surfEdgeSize); err != nil {
		return nil, err
	}
	if g.texInfo, err = readRecords[texInfo](data, b.Lumps[LumpTexInfo], texInfoSize); err != nil {
		return nil, err
	}

	if b.Version.wide() {
		edges, err := readRecords[edgeV1](data, b.Lumps[LumpEdges], edgeSize2)
		if err != nil {
			return nil, err
		}
		g.edges = make([][2]uint32, len(edges))
		for i, e := range edges {
			g.edges[i] = e.V
		}
	} else {
		edges, err := readRecords[edgeV0](data, b.Lumps[LumpEdges], edgeSize29)
		if err != nil {
			return nil, err
		}
		g.edges = make([][2]uint32, len(edges))
		for i, e := range edges {
			g.edges[i] = [2]uint32{uint32(e.V[0]), uint32(e.V[1])}
		}
	}

	return g, nil
}

// faceVertex returns the first vertex of the n-th edge of a face.
func (g *geometry) faceVertex(firstEdge, n int) ([3]float32, bool) {
	se := firstEdge + n
	if se < 0 || se >= len(g.surfEdges) {
		return [3]float32{}, false
	}
	e := int64(g.surfEdges[se])
	var v uint32
	if e >= 0 {
		if e >= int64(len(g.edges)) {
			return [3]float32{}, false
		}
		v = g.edges[e][0]
	} else {
		if -e >= int64(len(g.edges)) {
			return [3]float32{}, false
		}
		v = g.edges[-e][1]
	}
	if int(v) >= len(g.vertices) {
		return [3]float32{}, false
	}
	return g.vertices[v], true
}
