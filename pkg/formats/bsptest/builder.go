// Package bsptest builds synthetic BSP files for tests.
package bsptest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/bsplight/pkg/formats"
)

// TexInfo is a texture projection record.
type TexInfo struct {
	Vecs  [2][4]float32
	Flags int32
}

// Face is a polygon with its lighting attributes.
type Face struct {
	Verts    [][3]float32
	TexInfo  int
	Styles   [4]byte
	LightOfs int32
}

// Extension is a BSPX lump.
type Extension struct {
	Name string
	Data []byte
}

// Builder assembles a BSP file. Geometry lumps are generated from the face
// polygons.
type Builder struct {
	Version   formats.Version
	TexInfos  []TexInfo
	Faces     []Face
	Lighting  []byte
	Entities  string
	BSPX      []Extension
	RawLumps  map[int][]byte // overrides generated lump contents
	TrailJunk []byte         // appended after all lumps
}

// New returns a BSP29 builder with an axis-aligned texinfo at index 0.
func New() *Builder {
	return &Builder{
		Version:  formats.VersionBSP29,
		TexInfos: []TexInfo{AxisTexInfo()},
	}
}

// AxisTexInfo projects world X onto s and world Y onto t.
func AxisTexInfo() TexInfo {
	return TexInfo{Vecs: [2][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}}
}

// Quad returns a face whose lightmap is w x h luxels at the default scale
// of 16 when projected with AxisTexInfo.
func Quad(w, h int, styles [4]byte, lightOfs int32) Face {
	x := float32((w - 1) * formats.DefaultLightmapScale)
	y := float32((h - 1) * formats.DefaultLightmapScale)
	return Face{
		Verts:    [][3]float32{{0, 0, 0}, {x, 0, 0}, {x, y, 0}, {0, y, 0}},
		Styles:   styles,
		LightOfs: lightOfs,
	}
}

// Styles is shorthand for a style array padded with the unused marker.
func Styles(s ...byte) [4]byte {
	out := [4]byte{255, 255, 255, 255}
	copy(out[:], s)
	return out
}

// AddQuad appends a w x h face whose samples for each style are filled
// from fill(slot, x, y) and appended to Lighting. It returns the face index.
func (b *Builder) AddQuad(w, h int, styles [4]byte, fill func(slot, x, y int) byte) int {
	ofs := int32(len(b.Lighting))
	n := 0
	for _, s := range styles {
		if s == 255 {
			break
		}
		n++
	}
	for slot := 0; slot < n; slot++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				b.Lighting = append(b.Lighting, fill(slot, x, y))
			}
		}
	}
	b.Faces = append(b.Faces, Quad(w, h, styles, ofs))
	return len(b.Faces) - 1
}

func (b *Builder) wide() bool {
	return b.Version == formats.VersionBSP2 || b.Version == formats.Version2PSB
}

// Bytes serializes the file.
func (b *Builder) Bytes() []byte {
	var (
		verts     [][3]float32
		edges     [][2]uint32
		surfEdges []int32
		faces     bytes.Buffer
	)
	edges = append(edges, [2]uint32{}) // edge 0 cannot be negated

	for _, f := range b.Faces {
		first := int32(len(surfEdges))
		base := uint32(len(verts))
		verts = append(verts, f.Verts...)
		for i := range f.Verts {
			a := base + uint32(i)
			c := base + uint32((i+1)%len(f.Verts))
			edges = append(edges, [2]uint32{a, c})
			surfEdges = append(surfEdges, int32(len(edges)-1))
		}
		if b.wide() {
			binary.Write(&faces, binary.LittleEndian, struct {
				Plane, Side, FirstEdge, NumEdges, TexInfo int32
				Styles                                    [4]byte
				LightOfs                                  int32
			}{0, 0, first, int32(len(f.Verts)), int32(f.TexInfo), f.Styles, f.LightOfs})
		} else {
			binary.Write(&faces, binary.LittleEndian, struct {
				Plane     uint16
				Side      int16
				FirstEdge int32
				NumEdges  uint16
				TexInfo   uint16
				Styles    [4]byte
				LightOfs  int32
			}{0, 0, first, uint16(len(f.Verts)), uint16(f.TexInfo), f.Styles, f.LightOfs})
		}
	}

	lumps := make([][]byte, formats.NumLumps)
	lumps[formats.LumpEntities] = append([]byte(b.Entities), 0)
	lumps[formats.LumpVertices] = encode(verts)
	if b.wide() {
		lumps[formats.LumpEdges] = encode(edges)
	} else {
		narrow := make([][2]uint16, len(edges))
		for i, e := range edges {
			narrow[i] = [2]uint16{uint16(e[0]), uint16(e[1])}
		}
		lumps[formats.LumpEdges] = encode(narrow)
	}
	lumps[formats.LumpSurfEdges] = encode(surfEdges)
	lumps[formats.LumpFaces] = faces.Bytes()
	lumps[formats.LumpLighting] = b.Lighting

	ti := make([]struct {
		Vecs   [2][4]float32
		MipTex int32
		Flags  int32
	}, len(b.TexInfos))
	for i, t := range b.TexInfos {
		ti[i].Vecs = t.Vecs
		ti[i].Flags = t.Flags
	}
	lumps[formats.LumpTexInfo] = encode(ti)

	for i, raw := range b.RawLumps {
		lumps[i] = raw
	}

	var out bytes.Buffer
	switch b.Version {
	case formats.VersionBSP2:
		out.WriteString("BSP2")
	case formats.Version2PSB:
		out.WriteString("2PSB")
	case formats.VersionBSP30:
		binary.Write(&out, binary.LittleEndian, int32(30))
	default:
		binary.Write(&out, binary.LittleEndian, int32(29))
	}
	dir := out.Len()
	out.Write(make([]byte, formats.NumLumps*8))

	header := make([]byte, formats.NumLumps*8)
	for i, l := range lumps {
		align(&out)
		binary.LittleEndian.PutUint32(header[i*8:], uint32(out.Len()))
		binary.LittleEndian.PutUint32(header[i*8+4:], uint32(len(l)))
		out.Write(l)
	}

	if len(b.BSPX) > 0 {
		align(&out)
		out.WriteString("BSPX")
		binary.Write(&out, binary.LittleEndian, uint32(len(b.BSPX)))
		entries := out.Len()
		out.Write(make([]byte, len(b.BSPX)*32))
		for i, x := range b.BSPX {
			align(&out)
			e := out.Bytes()[entries+i*32:]
			copy(e[:24], x.Name)
			binary.LittleEndian.PutUint32(e[24:], uint32(out.Len()))
			binary.LittleEndian.PutUint32(e[28:], uint32(len(x.Data)))
			out.Write(x.Data)
		}
	}
	out.Write(b.TrailJunk)

	data := out.Bytes()
	copy(data[dir:], header)
	return data
}

func align(buf *bytes.Buffer) {
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

func encode(v any) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}
