package formats

import (
	"errors"
	"fmt"
)

// BSP format errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported BSP version")
	ErrLumpBounds         = errors.New("lump outside file bounds")
	ErrLumpSize           = errors.New("lump length not a multiple of record size")
	ErrTruncated          = errors.New("truncated data")
	ErrInvalidLITMagic    = errors.New("invalid LIT magic: expected 'QLIT'")
)

// FormatError reports a malformed or unsupported level file. It is fatal
// for the file being loaded.
type FormatError struct {
	Lump   string // lump name, empty for the file header
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	where := "header"
	if e.Lump != "" {
		where = e.Lump + " lump"
	}
	if e.Reason == "" {
		return fmt.Sprintf("bsp: %s: %v", where, e.Err)
	}
	return fmt.Sprintf("bsp: %s: %s: %v", where, e.Reason, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatError(lump string, err error, format string, args ...any) *FormatError {
	return &FormatError{Lump: lump, Reason: fmt.Sprintf(format, args...), Err: err}
}

// PartialDataWarning describes decodable but suspicious data. The record it
// refers to was decoded best-effort and loading continued.
type PartialDataWarning struct {
	Lump   string
	Index  int // record index within the lump, -1 when not applicable
	Reason string
}

// String implements fmt.Stringer.
func (w PartialDataWarning) String() string {
	if w.Index < 0 {
		return fmt.Sprintf("%s: %s", w.Lump, w.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", w.Lump, w.Index, w.Reason)
}

// warnings accumulates PartialDataWarnings during a parse.
type warnings []PartialDataWarning

func (w *warnings) add(lump string, index int, format string, args ...any) {
	*w = append(*w, PartialDataWarning{Lump: lump, Index: index, Reason: fmt.Sprintf(format, args...)})
}
