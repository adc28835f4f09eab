package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Version identifies the BSP dialect.
type Version int

// Supported BSP dialects.
const (
	VersionBSP29 Version = iota + 1 // Quake
	VersionBSP30                    // Half-Life, RGB lighting
	VersionBSP2                     // "BSP2" large-map extension
	Version2PSB                     // "2PSB", BSP2 faces and edges
)

// String returns the on-disk name of the version.
func (v Version) String() string {
	switch v {
	case VersionBSP29:
		return "BSP29"
	case VersionBSP30:
		return "BSP30"
	case VersionBSP2:
		return "BSP2"
	case Version2PSB:
		return "2PSB"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// wide reports whether the dialect uses 32-bit face and edge fields.
func (v Version) wide() bool {
	return v == VersionBSP2 || v == Version2PSB
}

// Lump indices in the BSP header.
const (
	LumpEntities = iota
	LumpPlanes
	LumpTextures
	LumpVertices
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpClipNodes
	LumpLeafs
	LumpMarkSurfaces
	LumpEdges
	LumpSurfEdges
	LumpModels
	NumLumps
)

var lumpNames = [NumLumps]string{
	"entities", "planes", "textures", "vertices", "visibility",
	"nodes", "texinfo", "faces", "lighting", "clipnodes",
	"leafs", "marksurfaces", "edges", "surfedges", "models",
}

// LumpName returns the name of a header lump.
func LumpName(i int) string {
	if i < 0 || i >= NumLumps {
		return fmt.Sprintf("lump%d", i)
	}
	return lumpNames[i]
}

// headerSize is the version field plus the lump directory.
const headerSize = 4 + NumLumps*8

// DefaultLightmapScale is the world-unit size of one luxel.
const DefaultLightmapScale = 16

// Lump is one entry of a lump directory.
type Lump struct {
	Name   string
	Offset int
	Length int
}

// End returns the offset one past the last byte of the lump.
func (l Lump) End() int {
	return l.Offset + l.Length
}

// slice returns the lump's bytes. Bounds are validated when the directory
// is read.
func (l Lump) slice(data []byte) []byte {
	return data[l.Offset:l.End()]
}

// BSP holds the lighting-relevant contents of a compiled level.
type BSP struct {
	Version    Version
	Lumps      [NumLumps]Lump
	Extensions []Lump // BSPX lumps, empty when the file has none

	Faces    []FaceLightInfo
	Light    *LightLump
	Grid     *LightGrid // nil when the level has no light grid
	Entities []Entity

	Warnings []PartialDataWarning
}

// Extension returns the BSPX lump with the given name.
func (b *BSP) Extension(name string) (Lump, bool) {
	for _, l := range b.Extensions {
		if l.Name == name {
			return l, true
		}
	}
	return Lump{}, false
}

// LightmappedFaces returns the number of faces carrying a lightmap.
func (b *BSP) LightmappedFaces() int {
	n := 0
	for i := range b.Faces {
		if b.Faces[i].HasLightmap() {
			n++
		}
	}
	return n
}

// ParseOption configures ParseBSP.
type ParseOption func(*parseOptions)

type parseOptions struct {
	lit   []byte
	scale int
}

// WithLit supplies the contents of an external .lit file.
func WithLit(data []byte) ParseOption {
	return func(o *parseOptions) {
		o.lit = data
	}
}

// WithLightmapScale overrides the default luxel size for faces without a
// per-face LMSHIFT value.
func WithLightmapScale(scale int) ParseOption {
	return func(o *parseOptions) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// ParseBSP parses the lighting data of a BSP file from raw bytes.
func ParseBSP(data []byte, opts ...ParseOption) (*BSP, error) {
	o := parseOptions{scale: DefaultLightmapScale}
	for _, opt := range opts {
		opt(&o)
	}

	b := &BSP{}
	if err := b.readHeader(data); err != nil {
		return nil, err
	}

	var warn warnings

	ext, err := readBSPX(data, b.Lumps)
	if err != nil {
		return nil, err
	}
	b.Extensions = ext

	geo, err := readGeometry(data, b)
	if err != nil {
		return nil, err
	}

	light, err := b.readLighting(data, o.lit, &warn)
	if err != nil {
		return nil, err
	}
	b.Light = light

	faces, err := b.readFaces(data, geo, o.scale, &warn)
	if err != nil {
		return nil, err
	}
	b.Faces = faces

	if l, ok := b.Extension(BSPXLightGrid); ok {
		b.Grid = parseLightGrid(l.slice(data), &warn)
	}

	b.Entities = ParseEntities(b.Lumps[LumpEntities].slice(data))

	b.Warnings = warn
	return b, nil
}

// ParseBSPFile parses a BSP file from disk. A sibling .lit file is used for
// colored lighting when present and no WithLit option is given.
func ParseBSPFile(path string, opts ...ParseOption) (*BSP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading BSP file: %w", err)
	}

	var probe parseOptions
	for _, opt := range opts {
		opt(&probe)
	}
	if probe.lit == nil {
		litPath := strings.TrimSuffix(path, ".bsp") + ".lit"
		lit, err := os.ReadFile(litPath)
		switch {
		case err == nil:
			opts = append(opts, WithLit(lit))
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading LIT file: %w", err)
		}
	}

	return ParseBSP(data, opts...)
}

// readHeader decodes the version and lump directory and validates that
// every lump lies inside the file.
func (b *BSP) readHeader(data []byte) error {
	if len(data) < headerSize {
		return formatError("", ErrTruncated, "file is %d bytes, header needs %d", len(data), headerSize)
	}

	switch magic := string(data[0:4]); magic {
	case "BSP2":
		b.Version = VersionBSP2
	case "2PSB":
		b.Version = Version2PSB
	default:
		switch v := int32(binary.LittleEndian.Uint32(data[0:4])); v {
		case 29:
			b.Version = VersionBSP29
		case 30:
			b.Version = VersionBSP30
		default:
			return formatError("", ErrUnsupportedVersion, "version %d", v)
		}
	}

	for i := 0; i < NumLumps; i++ {
		base := 4 + i*8
		ofs := int64(int32(binary.LittleEndian.Uint32(data[base:])))
		n := int64(int32(binary.LittleEndian.Uint32(data[base+4:])))
		if ofs < 0 || n < 0 || ofs+n > int64(len(data)) {
			return formatError(lumpNames[i], ErrLumpBounds, "range [%d, %d) exceeds file size %d", ofs, ofs+n, len(data))
		}
		b.Lumps[i] = Lump{Name: lumpNames[i], Offset: int(ofs), Length: int(n)}
	}

	return nil
}
