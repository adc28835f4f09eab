package composite

import (
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
)

// Tracker decides whether a composited texture is stale. The zero value
// always asks for an update first.
type Tracker struct {
	version uint64
	valid   bool
}

// NeedsUpdate reports whether output built from the given styles must be
// recomposited for snap. It is false only when the previous update used the
// same table version and every style is constant. A true result records
// snap's version.
func (tr *Tracker) NeedsUpdate(snap *lighting.Snapshot, styles []lightstyle.Style) bool {
	if tr.valid && tr.version == snap.Version() && allConstant(snap, styles) {
		return false
	}
	tr.version = snap.Version()
	tr.valid = true
	return true
}

// Invalidate forces the next NeedsUpdate to return true, e.g. after the
// source atlas changed.
func (tr *Tracker) Invalidate() {
	tr.valid = false
}

func allConstant(snap *lighting.Snapshot, styles []lightstyle.Style) bool {
	for _, s := range styles {
		if !snap.IsConstant(s) {
			return false
		}
	}
	return true
}
