package formats

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/bsplight/pkg/encoding"
)

// Known BSPX lump names.
const (
	BSPXRGBLighting = "RGBLIGHTING"
	BSPXLMShift     = "LMSHIFT"
	BSPXDecoupledLM = "DECOUPLED_LM"
	BSPXLightGrid   = "LIGHTGRID_OCTREE"
)

const (
	bspxMagic     = "BSPX"
	bspxNameSize  = 24
	bspxEntrySize = bspxNameSize + 4 + 4
)

// readBSPX locates the BSPX directory that follows the last header lump and
// decodes its entries. A file without the directory yields no extensions.
func readBSPX(data []byte, lumps [NumLumps]Lump) ([]Lump, error) {
	end := headerSize
	for _, l := range lumps {
		if l.End() > end {
			end = l.End()
		}
	}
	end = (end + 3) &^ 3

	if end+8 > len(data) || string(data[end:end+4]) != bspxMagic {
		return nil, nil
	}

	count := int64(binary.LittleEndian.Uint32(data[end+4:]))
	dir := int64(end + 8)
	if dir+count*bspxEntrySize > int64(len(data)) {
		return nil, formatError("bspx", ErrTruncated, "directory of %d entries exceeds file size", count)
	}

	out := make([]Lump, 0, count)
	for i := int64(0); i < count; i++ {
		e := data[dir+i*bspxEntrySize:]
		name := encoding.FixedString(e[:bspxNameSize])
		ofs := int64(binary.LittleEndian.Uint32(e[bspxNameSize:]))
		n := int64(binary.LittleEndian.Uint32(e[bspxNameSize+4:]))
		if ofs+n > int64(len(data)) {
			return nil, formatError(name, ErrLumpBounds, "range [%d, %d) exceeds file size %d", ofs, ofs+n, len(data))
		}
		out = append(out, Lump{Name: name, Offset: int(ofs), Length: int(n)})
	}
	return out, nil
}

// decoupledLM is the per-face DECOUPLED_LM record: an explicit lightmap
// size, light offset and world-to-luxel projection.
type decoupledLM struct {
	Width   uint16
	Height  uint16
	Offset  int32
	WorldTo [2][4]float32
}

// readLMShift returns per-face luxel sizes from LMSHIFT, or nil.
func (b *BSP) readLMShift(data []byte, numFaces int, warn *warnings) []int {
	l, ok := b.Extension(BSPXLMShift)
	if !ok {
		return nil
	}
	if l.Length != numFaces {
		warn.add(l.Name, -1, "%d entries for %d faces; ignored", l.Length, numFaces)
		return nil
	}
	scales := make([]int, numFaces)
	for i, shift := range l.slice(data) {
		if shift > 15 {
			warn.add(l.Name, i, "shift %d out of range; using default", shift)
			continue
		}
		scales[i] = 1 << shift
	}
	return scales
}

// readDecoupled returns per-face DECOUPLED_LM records, or nil.
func (b *BSP) readDecoupled(data []byte, numFaces int, warn *warnings) ([]decoupledLM, error) {
	l, ok := b.Extension(BSPXDecoupledLM)
	if !ok {
		return nil, nil
	}
	recs, err := readRecords[decoupledLM](data, l, decoupledSize)
	if err != nil {
		return nil, err
	}
	if len(recs) != numFaces {
		warn.add(l.Name, -1, "%d entries for %d faces; ignored", len(recs), numFaces)
		return nil, nil
	}
	for i := range recs {
	check:
		for _, row := range recs[i].WorldTo {
			for _, c := range row {
				if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
					warn.add(l.Name, i, "non-finite projection; face left unlit")
					recs[i].Offset = -1
					break check
				}
			}
		}
	}
	return recs, nil
}
