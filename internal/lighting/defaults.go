package lighting

import (
	"fmt"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

// PatternFPS is the playback rate of classic lightstyle patterns.
const PatternFPS = 10

// QuakeStyles are the lightstyle patterns registered by the stock game code.
var QuakeStyles = map[lightstyle.Style]string{
	0:  "m",
	1:  "mmnmmommommnonmmonqnmmo",
	2:  "abcdefghijklmnopqrstuvwxyzyxwvutsrqponmlkjihgfedcba",
	3:  "mmmmmaaaaammmmmaaaaaabcdefgabcdefg",
	4:  "mamamamamama",
	5:  "jklmnopqrstuvwxyzyxwvutsrqponmlkj",
	6:  "nmonqnmomnmomomno",
	7:  "mmmaaaabcdefgmmmmaaaammmaamm",
	8:  "mmmaaammmaaammmabcdefaaaammmmabcdefmmmaaaa",
	9:  "aaaaaaaazzzzzzzz",
	10: "mmamammmmammamamaaamammma",
	11: "abcdefghijklmnopqrrqponmlkjihgfedcba",
}

// FromPattern converts a lightstyle string to an animator. Each letter is
// one frame; 'a' is black and 'm' is full brightness. Letters past 'm'
// overbrighten.
func FromPattern(pattern string, fps float32) (Animator, error) {
	if pattern == "" {
		return Animator{}, &InvalidAnimatorError{Style: -1, Reason: "empty pattern"}
	}
	seq := make([]math.Vec3, len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c < 'a' || c > 'z' {
			return Animator{}, &InvalidAnimatorError{Style: -1, Reason: fmt.Sprintf("pattern byte %q at %d outside 'a'..'z'", c, i)}
		}
		seq[i] = math.Splat(float32(c-'a') / float32('m'-'a'))
	}
	a := Animator{Sequence: seq, Speed: fps}
	return a, a.Validate()
}

// Defaults returns the stock animators: style 0 as a constant 1 and the
// classic patterns for styles 1 through 11.
func Defaults() map[lightstyle.Style]Animator {
	out := make(map[lightstyle.Style]Animator, len(QuakeStyles))
	for style, pattern := range QuakeStyles {
		a, err := FromPattern(pattern, PatternFPS)
		if err != nil {
			panic(fmt.Sprintf("lighting: built-in style %d: %v", style, err))
		}
		out[style] = a
	}
	out[0] = Constant(math.Splat(1))
	return out
}

// SmoothDefaults returns Defaults with the flicker and pulse styles replaced
// by short interpolated curves, which read better on filtered lightmaps.
func SmoothDefaults() map[lightstyle.Style]Animator {
	out := Defaults()
	out[1] = Animator{
		Sequence:    splats(0.2, 0.7, 1, 0.5, 0.8, 0.4),
		Speed:       4,
		Interpolate: 1,
	}
	out[2] = Animator{
		Sequence:    splats(0, 1),
		Speed:       0.5,
		Interpolate: 1,
	}
	return out
}

func splats(vs ...float32) []math.Vec3 {
	out := make([]math.Vec3, len(vs))
	for i, v := range vs {
		out[i] = math.Splat(v)
	}
	return out
}

// Preset names accepted by DefaultsByName.
const (
	PresetQuake  = "quake"
	PresetSmooth = "smooth"
	PresetNone   = "none"
)

// DefaultsByName returns the animators of a named preset.
func DefaultsByName(name string) (map[lightstyle.Style]Animator, error) {
	switch name {
	case PresetQuake, "":
		return Defaults(), nil
	case PresetSmooth:
		return SmoothDefaults(), nil
	case PresetNone:
		return map[lightstyle.Style]Animator{}, nil
	default:
		return nil, fmt.Errorf("unknown animator preset %q", name)
	}
}

// SwitchOn and SwitchOff are the animators of a toggled switchable light.
var (
	SwitchOn  = Constant(math.Splat(1))
	SwitchOff = Constant(math.Vec3{})
)
