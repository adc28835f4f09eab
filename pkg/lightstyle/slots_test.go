package lightstyle

import "testing"

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name      string
		in        [4]byte
		want      []Style
		wantNotes int
	}{
		{"empty", [4]byte{255, 255, 255, 255}, []Style{}, 0},
		{"single", [4]byte{0, 255, 255, 255}, []Style{0}, 0},
		{"full", [4]byte{0, 1, 2, 63}, []Style{0, 1, 2, 63}, 0},
		{"gap", [4]byte{0, 255, 5, 255}, []Style{0}, 1},
		{"duplicate", [4]byte{3, 3, 255, 255}, []Style{3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, notes := FromBytes(tt.in)
			got := s.Styles()
			if len(got) != len(tt.want) {
				t.Fatalf("Styles() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("slot %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
			if len(notes) != tt.wantNotes {
				t.Errorf("notes = %v, want %d entries", notes, tt.wantNotes)
			}
		})
	}
}

func TestSlotsBytesRoundTrip(t *testing.T) {
	s := Of(7, 0)
	b := s.Bytes()
	want := [4]byte{7, 0, 255, 255}
	if b != want {
		t.Fatalf("Bytes() = %v, want %v", b, want)
	}
	back, notes := FromBytes(b)
	if back != s || len(notes) != 0 {
		t.Errorf("FromBytes(Bytes()) = %v (%v), want %v", back, notes, s)
	}
}

func TestSlotsAdd(t *testing.T) {
	var s Slots
	for i := 0; i < MaxSlots; i++ {
		if err := s.Add(Style(i)); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if err := s.Add(9); err == nil {
		t.Error("expected error adding a fifth style")
	}

	var d Slots
	if err := d.Add(Unused); err == nil {
		t.Error("expected error adding the sentinel as a style")
	}
	_ = d.Add(4)
	if err := d.Add(4); err == nil {
		t.Error("expected error adding a duplicate style")
	}
}

func TestSlotsAt(t *testing.T) {
	s := Of(11)
	if st, ok := s.At(0); !ok || st != 11 {
		t.Errorf("At(0) = %d, %v", st, ok)
	}
	if _, ok := s.At(1); ok {
		t.Error("At(1) should be unused")
	}
	var zero Slots
	if zero.Len() != 0 {
		t.Errorf("zero Len() = %d", zero.Len())
	}
}
