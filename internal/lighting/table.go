package lighting

import (
	"sync"
	"sync/atomic"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

// numStyles covers every byte value so lookups never need a bounds check.
const numStyles = 256

// Table maps styles to animators. It is safe for concurrent use: writers
// are serialized and publish a new immutable Snapshot, readers take the
// current Snapshot without locking.
type Table struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{}
	t.cur.Store(&Snapshot{})
	return t
}

// NewDefaultTable returns a table pre-populated with Defaults.
func NewDefaultTable() *Table {
	t := NewTable()
	if err := t.Replace(Defaults()); err != nil {
		// Defaults are static data and always valid.
		panic(err)
	}
	return t
}

// Snapshot returns the current immutable view of the table.
func (t *Table) Snapshot() *Snapshot {
	return t.cur.Load()
}

// Version increments on every mutation.
func (t *Table) Version() uint64 {
	return t.Snapshot().version
}

// Set registers or replaces the animator for style. Invalid input returns
// an *InvalidAnimatorError and leaves the table unchanged.
func (t *Table) Set(style lightstyle.Style, a Animator) error {
	if err := validateFor(style, a); err != nil {
		return err
	}

	t.update(func(s *Snapshot) {
		a := a.Clone()
		s.animators[style] = &a
	})
	return nil
}

// SetFunc is Set with the animator given field by field.
func (t *Table) SetFunc(style lightstyle.Style, sequence []math.Vec3, speed, interpolate float32) error {
	return t.Set(style, Animator{Sequence: sequence, Speed: speed, Interpolate: interpolate})
}

// Get returns a copy of the animator registered for style.
func (t *Table) Get(style lightstyle.Style) (Animator, bool) {
	a, ok := t.Snapshot().Get(style)
	if !ok {
		return Animator{}, false
	}
	return a.Clone(), true
}

// Remove deletes the animator for style and reports whether one existed.
func (t *Table) Remove(style lightstyle.Style) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	old := t.cur.Load()
	if old.animators[style] == nil {
		return false
	}
	next := *old
	next.animators[style] = nil
	next.version++
	t.cur.Store(&next)
	return true
}

// Replace validates every animator and, if all are valid, registers them in
// a single update. Entries not named in set are kept.
func (t *Table) Replace(set map[lightstyle.Style]Animator) error {
	for style, a := range set {
		if err := validateFor(style, a); err != nil {
			return err
		}
	}

	t.update(func(s *Snapshot) {
		for style, a := range set {
			a := a.Clone()
			s.animators[style] = &a
		}
	})
	return nil
}

// update applies fn to a copy of the current snapshot and publishes it.
func (t *Table) update(fn func(*Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := *t.cur.Load()
	fn(&next)
	next.version++
	t.cur.Store(&next)
}

// Snapshot is an immutable view of the animator table. Animators reachable
// from a Snapshot must not be modified.
type Snapshot struct {
	version   uint64
	animators [numStyles]*Animator
}

// Version identifies the table state the snapshot was taken from.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Get returns the animator for style.
func (s *Snapshot) Get(style lightstyle.Style) (Animator, bool) {
	a := s.animators[style]
	if a == nil {
		return Animator{}, false
	}
	return *a, true
}

// Sample evaluates style at time t. Unregistered styles contribute nothing.
func (s *Snapshot) Sample(style lightstyle.Style, t float32) math.Vec3 {
	a := s.animators[style]
	if a == nil {
		return math.Vec3{}
	}
	return a.Sample(t)
}

// IsConstant reports whether style samples to the same value at every time.
// Unregistered styles are constant zero.
func (s *Snapshot) IsConstant(style lightstyle.Style) bool {
	a := s.animators[style]
	return a == nil || a.IsConstant()
}

// Styles returns the registered styles in ascending order.
func (s *Snapshot) Styles() []lightstyle.Style {
	var out []lightstyle.Style
	for i, a := range s.animators {
		if a != nil {
			out = append(out, lightstyle.Style(i))
		}
	}
	return out
}

// Animators returns a copy of every registered animator.
func (s *Snapshot) Animators() map[lightstyle.Style]Animator {
	out := make(map[lightstyle.Style]Animator)
	for i, a := range s.animators {
		if a != nil {
			out[lightstyle.Style(i)] = a.Clone()
		}
	}
	return out
}

// Len returns the number of registered styles.
func (s *Snapshot) Len() int {
	n := 0
	for _, a := range s.animators {
		if a != nil {
			n++
		}
	}
	return n
}

// Frame holds every style's multiplier at one instant, indexed by the
// on-disk style byte. Entry 255 and unregistered styles are zero.
type Frame [numStyles]math.Vec3

// Evaluate samples every registered style at time t into f.
func (s *Snapshot) Evaluate(t float32, f *Frame) {
	for i, a := range s.animators {
		if a == nil {
			f[i] = math.Vec3{}
			continue
		}
		f[i] = a.Sample(t)
	}
}
