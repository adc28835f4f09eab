// Package lighting implements the lightstyle animation model: per-style
// sequences of RGB multipliers sampled over time.
package lighting

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

// MaxFrames is the longest sequence an animator may hold.
const MaxFrames = 64

// InvalidAnimatorError is returned when an animator cannot be registered.
// The table is left unchanged.
type InvalidAnimatorError struct {
	Style  int // -1 when not tied to a style
	Reason string
}

func (e *InvalidAnimatorError) Error() string {
	if e.Style < 0 {
		return "lighting: invalid animator: " + e.Reason
	}
	return fmt.Sprintf("lighting: invalid animator for style %d: %s", e.Style, e.Reason)
}

// Animator is the animation of one lightstyle.
type Animator struct {
	Sequence    []math.Vec3 // RGB multiplier keyframes
	Speed       float32     // keyframes per second
	Interpolate float32     // 0 cuts between frames, 1 blends over the whole frame
}

// Constant returns an animator holding a single multiplier.
func Constant(v math.Vec3) Animator {
	return Animator{Sequence: []math.Vec3{v}}
}

// Validate checks the animator's invariants.
func (a Animator) Validate() error {
	invalid := func(format string, args ...any) error {
		return &InvalidAnimatorError{Style: -1, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case len(a.Sequence) == 0:
		return invalid("empty sequence")
	case len(a.Sequence) > MaxFrames:
		return invalid("%d frames, at most %d allowed", len(a.Sequence), MaxFrames)
	case math32.IsNaN(a.Speed) || math32.IsInf(a.Speed, 0):
		return invalid("speed %v is not finite", a.Speed)
	case math32.IsNaN(a.Interpolate) || a.Interpolate < 0 || a.Interpolate > 1:
		return invalid("interpolate %v outside [0, 1]", a.Interpolate)
	}
	for i, v := range a.Sequence {
		if !v.IsFinite() {
			return invalid("frame %d is not finite", i)
		}
	}
	return nil
}

// Sample returns the multiplier at time t in seconds. An animator with an
// empty sequence samples to zero.
func (a Animator) Sample(t float32) math.Vec3 {
	n := len(a.Sequence)
	if n == 0 {
		return math.Vec3{}
	}

	x := t * a.Speed
	whole := math32.Floor(x)
	frame := int(math32.Mod(whole, float32(n)))
	if frame < 0 {
		frame += n
	}

	if a.Interpolate <= 0 {
		return a.Sequence[frame]
	}

	next := (frame + 1) % n
	w := math32.Min((x-whole)/a.Interpolate, 1)
	return a.Sequence[frame].Lerp(a.Sequence[next], w)
}

// IsConstant reports whether Sample returns the same value for every t.
func (a Animator) IsConstant() bool {
	if len(a.Sequence) <= 1 || a.Speed == 0 {
		return true
	}
	for _, v := range a.Sequence[1:] {
		if v != a.Sequence[0] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (a Animator) Clone() Animator {
	a.Sequence = append([]math.Vec3(nil), a.Sequence...)
	return a
}

// validateFor validates a as the animator of style.
func validateFor(style lightstyle.Style, a Animator) error {
	if !style.Valid() {
		return &InvalidAnimatorError{Style: int(style), Reason: fmt.Sprintf("style index above %d", lightstyle.MaxStyle)}
	}
	if err := a.Validate(); err != nil {
		var ie *InvalidAnimatorError
		if errors.As(err, &ie) {
			ie.Style = int(style)
		}
		return err
	}
	return nil
}
