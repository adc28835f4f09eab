package math

import (
	"math"
	"testing"
)

func TestVec3Mul(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{0.5, 0.5, 2}
	got := a.Mul(b)
	want := Vec3{0.5, 1, 6}
	if got != want {
		t.Errorf("Vec3.Mul() = %v, want %v", got, want)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{1, 2, 4}

	tests := []struct {
		w    float32
		want Vec3
	}{
		{0, a},
		{1, b},
		{0.5, Vec3{0.5, 1, 2}},
	}
	for _, tt := range tests {
		if got := a.Lerp(b, tt.w); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.w, got, tt.want)
		}
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3IsFinite(t *testing.T) {
	if !Splat(1).IsFinite() {
		t.Error("Splat(1) should be finite")
	}
	if (Vec3{0, float32(math.NaN()), 0}).IsFinite() {
		t.Error("NaN component should not be finite")
	}
	if (Vec3{float32(math.Inf(1)), 0, 0}).IsFinite() {
		t.Error("Inf component should not be finite")
	}
}

func TestIVec3Contains(t *testing.T) {
	size := IVec3{2, 3, 4}
	if size.Volume() != 24 {
		t.Errorf("Volume() = %d, want 24", size.Volume())
	}
	if !size.Contains(IVec3{1, 2, 3}) {
		t.Error("expected (1,2,3) inside")
	}
	if size.Contains(IVec3{2, 0, 0}) {
		t.Error("expected (2,0,0) outside")
	}
	if size.Contains(IVec3{0, -1, 0}) {
		t.Error("expected (0,-1,0) outside")
	}
}
