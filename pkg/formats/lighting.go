package formats

// LightLump is the decoded baked light data of a level.
type LightLump struct {
	Source  string // "lighting", "RGBLIGHTING" or "lit"
	Offset  int    // byte offset of the data within its source file
	Length  int
	Colored bool   // 3 bytes per sample when true, 1 otherwise
	Samples []byte // raw sample bytes, immutable once parsed
}

// SampleCount returns the number of luxel samples.
func (l *LightLump) SampleCount() int {
	if l == nil {
		return 0
	}
	if l.Colored {
		return len(l.Samples) / 3
	}
	return len(l.Samples)
}

// RGB returns sample i as an RGB triple. Grayscale samples are replicated
// across channels. Out of range samples are black.
func (l *LightLump) RGB(i int) [3]uint8 {
	if i < 0 || i >= l.SampleCount() {
		return [3]uint8{}
	}
	if l.Colored {
		j := i * 3
		return [3]uint8{l.Samples[j], l.Samples[j+1], l.Samples[j+2]}
	}
	v := l.Samples[i]
	return [3]uint8{v, v, v}
}

// readLighting selects the light source: BSPX RGBLIGHTING first, then an
// external LIT file, then the base lighting lump.
func (b *BSP) readLighting(data, lit []byte, warn *warnings) (*LightLump, error) {
	base := b.Lumps[LumpLighting]
	colored := b.Version == VersionBSP30
	if colored && base.Length%3 != 0 {
		return nil, formatError(base.Name, ErrLumpSize, "%d bytes is not a multiple of 3", base.Length)
	}

	light := &LightLump{
		Source:  base.Name,
		Offset:  base.Offset,
		Length:  base.Length,
		Colored: colored,
		Samples: base.slice(data),
	}
	if colored {
		return light, nil
	}

	if rgb, ok := b.Extension(BSPXRGBLighting); ok {
		if rgb.Length%3 != 0 {
			return nil, formatError(rgb.Name, ErrLumpSize, "%d bytes is not a multiple of 3", rgb.Length)
		}
		if rgb.Length/3 == base.Length {
			return &LightLump{
				Source:  rgb.Name,
				Offset:  rgb.Offset,
				Length:  rgb.Length,
				Colored: true,
				Samples: rgb.slice(data),
			}, nil
		}
		warn.add(rgb.Name, -1, "%d samples, base lighting has %d; ignored", rgb.Length/3, base.Length)
	}

	if lit != nil {
		l, err := ParseLIT(lit)
		if err != nil {
			return nil, err
		}
		if l.SampleCount() == base.Length {
			return l, nil
		}
		warn.add("lit", -1, "%d samples, base lighting has %d; ignored", l.SampleCount(), base.Length)
	}

	return light, nil
}

// sampleIndex converts a face light offset into a sample index.
func (b *BSP) sampleIndex(lightOfs int) (int, bool) {
	if lightOfs < 0 {
		return -1, true
	}
	if b.Version == VersionBSP30 {
		return lightOfs / 3, lightOfs%3 == 0
	}
	return lightOfs, true
}
