package formats

import (
	"math"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// FaceLightInfo describes the lightmap of one face.
type FaceLightInfo struct {
	Face   int
	Width  int // luxels
	Height int
	Styles lightstyle.Slots
	Offset int // sample index of slot 0, -1 when the face has no lightmap

	// Luxel coordinates of a world position p are
	// (dot(p, Vecs[i].xyz) + Vecs[i].w) / Scale - TexMins[i].
	Vecs      [2][4]float32
	Scale     float32
	TexMins   [2]int
	Decoupled bool

	// layerSkip[k] counts the on-disk layers before slot k that belong to
	// dropped duplicate styles. stored is the number of layers the file
	// holds for the face, zero meaning Styles.Len().
	layerSkip [lightstyle.MaxSlots]uint8
	stored    int
}

// HasLightmap reports whether the face references baked light samples.
func (f *FaceLightInfo) HasLightmap() bool {
	return f.Offset >= 0 && f.Styles.Len() > 0 && f.Width > 0 && f.Height > 0
}

// Luxels returns the number of samples in one style layer.
func (f *FaceLightInfo) Luxels() int {
	return f.Width * f.Height
}

// StoredLayers returns the number of sample layers the file stores for the
// face. It exceeds Styles.Len() when duplicate styles were dropped.
func (f *FaceLightInfo) StoredLayers() int {
	if f.stored == 0 {
		return f.Styles.Len()
	}
	return f.stored
}

// Layer returns the on-disk sample layer of the given style slot, or -1
// when the slot is unused.
func (f *FaceLightInfo) Layer(slot int) int {
	if slot < 0 || slot >= f.Styles.Len() {
		return -1
	}
	return slot + int(f.layerSkip[slot])
}

// SlotOffset returns the sample index of the given style slot, or -1 when
// the slot is unused.
func (f *FaceLightInfo) SlotOffset(slot int) int {
	if !f.HasLightmap() {
		return -1
	}
	layer := f.Layer(slot)
	if layer < 0 {
		return -1
	}
	return f.Offset + layer*f.Luxels()
}

// mapLayers records where each kept style's samples live when the on-disk
// style bytes contain duplicates. Layers end at the first unused slot.
func (f *FaceLightInfo) mapLayers(raw [lightstyle.MaxSlots]byte) {
	var seen [256]bool
	slot := 0
	for i, v := range raw {
		if v == lightstyle.Unused {
			break
		}
		f.stored = i + 1
		if seen[v] {
			continue
		}
		seen[v] = true
		if slot < lightstyle.MaxSlots {
			f.layerSkip[slot] = uint8(i - slot)
		}
		slot++
	}
}

// LuxelCoords projects a world position into the face's luxel space.
func (f *FaceLightInfo) LuxelCoords(p [3]float32) (s, t float64) {
	var st [2]float64
	for i, v := range f.Vecs {
		d := float64(p[0])*float64(v[0]) + float64(p[1])*float64(v[1]) + float64(p[2])*float64(v[2]) + float64(v[3])
		st[i] = d/float64(f.Scale) - float64(f.TexMins[i])
	}
	return st[0], st[1]
}

// face is a dialect-independent face record.
type face struct {
	firstEdge int
	numEdges  int
	texInfo   int
	styles    [4]byte
	lightOfs  int
}

type faceV0 struct {
	Plane     uint16
	Side      int16
	FirstEdge int32
	NumEdges  uint16
	TexInfo   uint16
	Styles    [4]uint8
	LightOfs  int32
}

type faceV1 struct {
	Plane     int32
	Side      int32
	FirstEdge int32
	NumEdges  int32
	TexInfo   int32
	Styles    [4]uint8
	LightOfs  int32
}

func (b *BSP) readFaceRecords(data []byte) ([]face, error) {
	l := b.Lumps[LumpFaces]
	if b.Version.wide() {
		recs, err := readRecords[faceV1](data, l, faceSize2)
		if err != nil {
			return nil, err
		}
		out := make([]face, len(recs))
		for i, r := range recs {
			out[i] = face{int(r.FirstEdge), int(r.NumEdges), int(r.TexInfo), r.Styles, int(r.LightOfs)}
		}
		return out, nil
	}

	recs, err := readRecords[faceV0](data, l, faceSize29)
	if err != nil {
		return nil, err
	}
	out := make([]face, len(recs))
	for i, r := range recs {
		out[i] = face{int(r.FirstEdge), int(r.NumEdges), int(r.TexInfo), r.Styles, int(r.LightOfs)}
	}
	return out, nil
}

// readFaces derives FaceLightInfo for every face. Faces that cannot be
// sized are kept without a lightmap and reported as warnings.
func (b *BSP) readFaces(data []byte, g *geometry, scale int, warn *warnings) ([]FaceLightInfo, error) {
	faces, err := b.readFaceRecords(data)
	if err != nil {
		return nil, err
	}

	shifts := b.readLMShift(data, len(faces), warn)
	decoupled, err := b.readDecoupled(data, len(faces), warn)
	if err != nil {
		return nil, err
	}

	samples := b.Light.SampleCount()
	out := make([]FaceLightInfo, len(faces))

	for i, f := range faces {
		info := &out[i]
		info.Face = i
		info.Offset = -1

		styles, notes := lightstyle.FromBytes(f.styles)
		for _, n := range notes {
			warn.add("faces", i, "%s; slot ignored", n)
		}
		info.Styles = styles
		info.mapLayers(f.styles)

		lightOfs := f.lightOfs
		if decoupled != nil {
			d := decoupled[i]
			info.Decoupled = true
			info.Width, info.Height = int(d.Width), int(d.Height)
			info.Vecs = d.WorldTo
			info.Scale = 1
			lightOfs = int(d.Offset)
		} else {
			if f.texInfo < 0 || f.texInfo >= len(g.texInfo) {
				warn.add("faces", i, "texinfo %d out of range", f.texInfo)
				continue
			}
			ti := g.texInfo[f.texInfo]
			if ti.Flags&TexSpecial != 0 {
				continue
			}
			info.Vecs = ti.Vecs

			s := scale
			if shifts != nil && shifts[i] > 0 {
				s = shifts[i]
			}
			info.Scale = float32(s)

			if lightOfs < 0 || styles.Len() == 0 {
				continue
			}
			if !b.faceExtents(g, f, info, warn) {
				continue
			}
		}

		if lightOfs < 0 || styles.Len() == 0 || info.Luxels() <= 0 {
			continue
		}

		idx, aligned := b.sampleIndex(lightOfs)
		if !aligned {
			warn.add("faces", i, "light offset %d not aligned to an RGB sample", lightOfs)
		}
		if need := idx + info.StoredLayers()*info.Luxels(); need > samples {
			warn.add("faces", i, "needs samples up to %d, lighting has %d; face left unlit", need, samples)
			continue
		}
		info.Offset = idx
	}

	return out, nil
}

// faceExtents computes the lightmap size and texture mins of a face from
// its vertices projected onto the texinfo axes.
func (b *BSP) faceExtents(g *geometry, f face, info *FaceLightInfo, warn *warnings) bool {
	if f.numEdges < 3 {
		warn.add("faces", info.Face, "%d edges, need at least 3", f.numEdges)
		return false
	}

	mins := [2]float64{math.Inf(1), math.Inf(1)}
	maxs := [2]float64{math.Inf(-1), math.Inf(-1)}

	for n := 0; n < f.numEdges; n++ {
		v, ok := g.faceVertex(f.firstEdge, n)
		if !ok {
			warn.add("faces", info.Face, "edge %d references missing geometry", n)
			return false
		}
		for axis, vec := range info.Vecs {
			d := float64(v[0])*float64(vec[0]) + float64(v[1])*float64(vec[1]) + float64(v[2])*float64(vec[2]) + float64(vec[3])
			mins[axis] = math.Min(mins[axis], d)
			maxs[axis] = math.Max(maxs[axis], d)
		}
	}

	scale := float64(info.Scale)
	var size [2]int
	for axis := 0; axis < 2; axis++ {
		lo := math.Floor(mins[axis] / scale)
		hi := math.Ceil(maxs[axis] / scale)
		if math.IsNaN(lo) || math.IsNaN(hi) || hi-lo > maxLuxelExtent {
			warn.add("faces", info.Face, "bad surface extents on axis %d", axis)
			return false
		}
		info.TexMins[axis] = int(lo)
		size[axis] = int(hi-lo) + 1
	}
	info.Width, info.Height = size[0], size[1]
	return true
}

// maxLuxelExtent bounds the lightmap size of one face. Compilers stay far
// below it; larger values come from corrupt projections.
const maxLuxelExtent = 4096
