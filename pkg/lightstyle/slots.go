// Package lightstyle models the up-to-four lightstyle slots attached to a
// lightmapped face or light grid cell.
package lightstyle

import "fmt"

// MaxSlots is the number of styles a face or cell can carry.
const MaxSlots = 4

// Unused is the on-disk byte marking an empty slot. It never appears in a
// Slots value.
const Unused = 255

// MaxStyle is the highest valid style index.
const MaxStyle = 254

// Style is a lightstyle index in [0, MaxStyle].
type Style uint8

// Valid reports whether s is a usable style index.
func (s Style) Valid() bool {
	return s <= MaxStyle
}

// Slots is a fixed-capacity, ordered set of styles. The zero value holds no
// styles.
type Slots struct {
	styles [MaxSlots]Style
	n      uint8
}

// Of builds Slots from the given styles. It panics on programmer error
// (too many styles or an invalid index); use FromBytes for file data.
func Of(styles ...Style) Slots {
	var s Slots
	for _, st := range styles {
		if err := s.Add(st); err != nil {
			panic(err)
		}
	}
	return s
}

// Add appends a style to the next free slot.
func (s *Slots) Add(style Style) error {
	if !style.Valid() {
		return fmt.Errorf("lightstyle: style %d out of range", style)
	}
	if int(s.n) >= MaxSlots {
		return fmt.Errorf("lightstyle: all %d slots in use", MaxSlots)
	}
	if s.Contains(style) {
		return fmt.Errorf("lightstyle: style %d already assigned", style)
	}
	s.styles[s.n] = style
	s.n++
	return nil
}

// Len returns the number of used slots.
func (s Slots) Len() int {
	return int(s.n)
}

// At returns the style in slot i and whether the slot is used.
func (s Slots) At(i int) (Style, bool) {
	if i < 0 || i >= int(s.n) {
		return 0, false
	}
	return s.styles[i], true
}

// Styles returns the used styles in slot order.
func (s Slots) Styles() []Style {
	out := make([]Style, s.n)
	copy(out, s.styles[:s.n])
	return out
}

// Contains reports whether style occupies any slot.
func (s Slots) Contains(style Style) bool {
	for i := 0; i < int(s.n); i++ {
		if s.styles[i] == style {
			return true
		}
	}
	return false
}

// Bytes serializes the slots using the file-format sentinel for empty slots.
func (s Slots) Bytes() [MaxSlots]byte {
	out := [MaxSlots]byte{Unused, Unused, Unused, Unused}
	for i := 0; i < int(s.n); i++ {
		out[i] = byte(s.styles[i])
	}
	return out
}

// String implements fmt.Stringer.
func (s Slots) String() string {
	return fmt.Sprint(s.Styles())
}

// FromBytes decodes on-disk style bytes. Decoding stops at the first unused
// slot, matching the engine convention. Styles that follow an unused slot
// and duplicate styles are dropped and reported in notes.
func FromBytes(b [MaxSlots]byte) (s Slots, notes []string) {
	ended := false
	for i, v := range b {
		if v == Unused {
			ended = true
			continue
		}
		if ended {
			notes = append(notes, fmt.Sprintf("style %d in slot %d follows an unused slot", v, i))
			continue
		}
		if s.Contains(Style(v)) {
			notes = append(notes, fmt.Sprintf("duplicate style %d in slot %d", v, i))
			continue
		}
		s.styles[s.n] = Style(v)
		s.n++
	}
	return s, notes
}
