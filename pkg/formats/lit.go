package formats

import (
	"fmt"
	"os"
)

const (
	litMagic      = "QLIT"
	litHeaderSize = 8
)

// ParseLIT parses an external colored-light (.lit) file: a "QLIT" magic, an
// int32 version and one RGB triple per base lighting sample. The version is
// not checked; writers disagree on its value.
func ParseLIT(data []byte) (*LightLump, error) {
	if len(data) < litHeaderSize {
		return nil, formatError("lit", ErrTruncated, "file is %d bytes", len(data))
	}
	if string(data[0:4]) != litMagic {
		return nil, &FormatError{Lump: "lit", Err: ErrInvalidLITMagic}
	}
	payload := data[litHeaderSize:]
	if len(payload)%3 != 0 {
		return nil, formatError("lit", ErrLumpSize, "%d bytes is not a multiple of 3", len(payload))
	}

	return &LightLump{
		Source:  "lit",
		Offset:  litHeaderSize,
		Length:  len(payload),
		Colored: true,
		Samples: payload,
	}, nil
}

// ParseLITFile parses a .lit file from disk.
func ParseLITFile(path string) (*LightLump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading LIT file: %w", err)
	}
	return ParseLIT(data)
}
