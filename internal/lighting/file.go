package lighting

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

// File is the on-disk animator set.
//
//	animators:
//	  1: {pattern: "mmnmmommommnonmmonqnmmo"}
//	  5: {sequence: [0.2, [1, 0.9, 0.8]], speed: 0.5, interpolate: 1}
type File struct {
	Animators map[int]AnimatorEntry `yaml:"animators"`
}

// AnimatorEntry describes one animator. Exactly one of Pattern and Sequence
// is set. Speed defaults to PatternFPS for patterns.
type AnimatorEntry struct {
	Pattern     string     `yaml:"pattern,omitempty"`
	Sequence    []Keyframe `yaml:"sequence,omitempty"`
	Speed       *float32   `yaml:"speed,omitempty"`
	Interpolate float32    `yaml:"interpolate,omitempty"`
}

// Keyframe is an RGB multiplier written either as a scalar or as [r, g, b].
type Keyframe math.Vec3

// UnmarshalYAML implements yaml.Unmarshaler.
func (k *Keyframe) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		*k = Keyframe(math.Splat(v))
		return nil
	case yaml.SequenceNode:
		var v []float32
		if err := node.Decode(&v); err != nil {
			return err
		}
		if len(v) != 3 {
			return fmt.Errorf("line %d: keyframe needs 3 components, got %d", node.Line, len(v))
		}
		*k = Keyframe(math.Vec3{X: v[0], Y: v[1], Z: v[2]})
		return nil
	default:
		return fmt.Errorf("line %d: keyframe must be a number or [r, g, b]", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (k Keyframe) MarshalYAML() (any, error) {
	if k.X == k.Y && k.Y == k.Z {
		return k.X, nil
	}
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, c := range math.Vec3(k).Array() {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(c)})
	}
	return node, nil
}

// Animator converts the entry.
func (s AnimatorEntry) Animator() (Animator, error) {
	if s.Pattern != "" && len(s.Sequence) > 0 {
		return Animator{}, &InvalidAnimatorError{Style: -1, Reason: "both pattern and sequence given"}
	}

	var a Animator
	if s.Pattern != "" {
		var err error
		if a, err = FromPattern(s.Pattern, PatternFPS); err != nil {
			return Animator{}, err
		}
	} else {
		for _, k := range s.Sequence {
			a.Sequence = append(a.Sequence, math.Vec3(k))
		}
	}
	if s.Speed != nil {
		a.Speed = *s.Speed
	}
	a.Interpolate = s.Interpolate
	return a, a.Validate()
}

// Load decodes an animator file. Every invalid entry is reported; the
// result is nil when any entry is invalid.
func Load(data []byte) (map[lightstyle.Style]Animator, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing animator file: %w", err)
	}

	styles := make([]int, 0, len(f.Animators))
	for style := range f.Animators {
		styles = append(styles, style)
	}
	sort.Ints(styles)

	var errs error
	out := make(map[lightstyle.Style]Animator, len(styles))
	for _, style := range styles {
		if style < 0 || style > lightstyle.MaxStyle {
			errs = multierr.Append(errs, &InvalidAnimatorError{Style: style, Reason: fmt.Sprintf("style index outside 0..%d", lightstyle.MaxStyle)})
			continue
		}
		a, err := f.Animators[style].Animator()
		if err != nil {
			errs = multierr.Append(errs, withStyle(err, style))
			continue
		}
		out[lightstyle.Style(style)] = a
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

// LoadFile reads and decodes an animator file.
func LoadFile(path string) (map[lightstyle.Style]Animator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading animator file: %w", err)
	}
	return Load(data)
}

// ApplyFile loads an animator file into t. On any error t is unchanged.
func ApplyFile(t *Table, path string) error {
	set, err := LoadFile(path)
	if err != nil {
		return err
	}
	return t.Replace(set)
}

// Marshal encodes animators in the file format.
func Marshal(set map[lightstyle.Style]Animator) ([]byte, error) {
	f := File{Animators: make(map[int]AnimatorEntry, len(set))}
	for style, a := range set {
		speed := a.Speed
		e := AnimatorEntry{Speed: &speed, Interpolate: a.Interpolate}
		for _, v := range a.Sequence {
			e.Sequence = append(e.Sequence, Keyframe(v))
		}
		f.Animators[int(style)] = e
	}
	return yaml.Marshal(&f)
}

func withStyle(err error, style int) error {
	if ie, ok := err.(*InvalidAnimatorError); ok {
		copied := *ie
		copied.Style = style
		return &copied
	}
	return err
}
