// Package encoding converts the 8-bit text found in Quake-family files to
// UTF-8.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// highBit marks the alternate ("gold") glyph of a printable character.
const highBit = 0x80

// ToUTF8 converts Quake 8-bit text to UTF-8. A byte with the high bit set
// whose low seven bits are printable ASCII is the coloured variant of that
// character and maps to it. Other bytes decode as Windows-1252.
func ToUTF8(data []byte) string {
	plain := true
	for _, c := range data {
		if c >= highBit {
			plain = false
			break
		}
	}
	if plain {
		return string(data)
	}

	folded := make([]byte, len(data))
	for i, c := range data {
		if c >= highBit && isPrintable(c&^highBit) {
			c &^= highBit
		}
		folded[i] = c
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(folded)
	if err != nil {
		return string(folded)
	}
	return string(out)
}

// FromUTF8 encodes s as Windows-1252. Characters outside the code page
// become '?'.
func FromUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

// FixedString converts a NUL-terminated fixed-size field to UTF-8.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return ToUTF8(data)
}

// PutFixedString writes s into a size-byte NUL-padded field.
func PutFixedString(s string, size int) []byte {
	field := make([]byte, size)
	copy(field, FromUTF8(s))
	return field
}

// NormalizePath lowercases a path and converts backslashes to slashes for
// case-insensitive lookup.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(strings.TrimPrefix(path, "/"))
}

func isPrintable(c byte) bool {
	return c >= 0x20 && c < 0x7f
}
