package lighting

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

func TestLoad(t *testing.T) {
	data := []byte(`
animators:
  1:
    pattern: "am"
  5:
    sequence: [0.2, [1, 0.9, 0.8]]
    speed: 0.5
    interpolate: 1
  32:
    sequence: [0]
`)
	set, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("expected 3 animators, got %d", len(set))
	}

	if a := set[1]; a.Speed != PatternFPS || len(a.Sequence) != 2 || a.Sequence[1] != math.Splat(1) {
		t.Errorf("style 1 = %+v", a)
	}
	a := set[5]
	if a.Speed != 0.5 || a.Interpolate != 1 {
		t.Errorf("style 5 speed/interpolate = %v/%v", a.Speed, a.Interpolate)
	}
	if a.Sequence[0] != math.Splat(0.2) || a.Sequence[1] != (math.Vec3{X: 1, Y: 0.9, Z: 0.8}) {
		t.Errorf("style 5 sequence = %v", a.Sequence)
	}
	if !set[32].IsConstant() {
		t.Error("style 32 should be constant")
	}
}

func TestLoad_ReportsEveryInvalidEntry(t *testing.T) {
	data := []byte(`
animators:
  1: {sequence: []}
  2: {pattern: "A"}
  3: {sequence: [1], interpolate: 2}
  4: {sequence: [1]}
  255: {sequence: [1]}
`)
	set, err := Load(data)
	if err == nil {
		t.Fatal("expected an error")
	}
	if set != nil {
		t.Error("partial result returned")
	}
	errs := multierr.Errors(err)
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(errs), err)
	}
	var ie *InvalidAnimatorError
	if !errors.As(errs[0], &ie) || ie.Style != 1 {
		t.Errorf("first error = %v", errs[0])
	}
	if !strings.Contains(errs[3].Error(), "255") {
		t.Errorf("last error = %v", errs[3])
	}
}

func TestLoad_BadKeyframe(t *testing.T) {
	for _, doc := range []string{
		"animators: {1: {sequence: [[1, 2]]}}",
		"animators: {1: {sequence: [{r: 1}]}}",
		"animators: {1: {sequence: [x]}}",
		"animators: {1: {pattern: am, sequence: [1]}}",
	} {
		if _, err := Load([]byte(doc)); err == nil {
			t.Errorf("Load(%q) accepted", doc)
		}
	}
}

func TestApplyFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(good, []byte("animators: {7: {sequence: [1, 0.5], speed: 2}}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("animators: {8: {sequence: [1]}, 9: {sequence: []}}"), 0644); err != nil {
		t.Fatal(err)
	}

	tbl := NewDefaultTable()
	if err := ApplyFile(tbl, good); err != nil {
		t.Fatalf("ApplyFile failed: %v", err)
	}
	if got := tbl.Snapshot().Sample(7, 0.51); got != math.Splat(0.5) {
		t.Errorf("style 7 at 0.51s = %v", got)
	}

	before := tbl.Version()
	if err := ApplyFile(tbl, bad); err == nil {
		t.Error("expected an error")
	}
	if tbl.Version() != before {
		t.Error("invalid file changed the table")
	}
	if _, ok := tbl.Get(8); ok {
		t.Error("valid entry of an invalid file was applied")
	}

	if err := ApplyFile(tbl, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	in := map[lightstyle.Style]Animator{
		3: {Sequence: []math.Vec3{math.Splat(0.5), {X: 1, Y: 0, Z: 0.25}}, Speed: 3, Interpolate: 0.5},
	}
	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v\n%s", err, data)
	}
	got := out[3]
	if got.Speed != 3 || got.Interpolate != 0.5 || len(got.Sequence) != 2 || got.Sequence[1] != in[3].Sequence[1] {
		t.Errorf("round trip = %+v", got)
	}
}
