package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/export"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/formats/bsptest"
	"github.com/Faultbox/bsplight/pkg/math"
)

func fill(v byte) func(slot, x, y int) byte {
	return func(int, int, int) byte { return v }
}

func writeMap(t *testing.T, b *bsptest.Builder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bsp")
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"maps/e1m1.bsp":               "e1m1",
		"id1/pak0.pak:maps/start.bsp": "start",
		`C:\quake\id1\maps\e2m3.bsp`:  "e2m3",
		"weird:name.bsp":              "weird:name",
	}
	for in, want := range tests {
		if filepath.Separator == '/' && in[1] == ':' {
			continue
		}
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchEntry(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"", "progs.dat", true},
		{"*.bsp", "maps/e1m1.bsp", true},
		{"maps/*.bsp", "maps/e1m1.bsp", true},
		{"E1M?.BSP", "maps/e1m1.bsp", true},
		{"*.lit", "maps/e1m1.bsp", false},
		{"e1m1", "maps/e1m1.bsp", true},
		{"maps/e1m1.bsp", "maps/e1m1.bsp", true},
		{"sound", "maps/e1m1.bsp", false},
	}
	for _, tt := range tests {
		if got := matchEntry(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchEntry(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

func TestLoadGrowing(t *testing.T) {
	b := bsptest.New()
	b.AddQuad(20, 20, bsptest.Styles(0), fill(80))
	path := writeMap(t, b)

	opts := level.DefaultOptions()
	opts.Atlas.MaxWidth, opts.Atlas.MaxHeight = 16, 16

	_, err := loadGrowing(context.Background(), path, opts, false)
	var overflow *atlas.AtlasOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("without -grow: err = %v, want AtlasOverflowError", err)
	}

	l, err := loadGrowing(context.Background(), path, opts, true)
	if err != nil {
		t.Fatalf("with -grow: %v", err)
	}
	if a := l.Atlases()[0]; a.Width != 32 || a.Height != 32 {
		t.Errorf("atlas = %dx%d, want 32x32", a.Width, a.Height)
	}
}

func TestPackWriter(t *testing.T) {
	b := bsptest.New()
	b.AddQuad(4, 2, bsptest.Styles(0, 5), fill(100))
	b.AddQuad(3, 3, bsptest.Styles(0), fill(200))
	opts := level.DefaultOptions()
	opts.Atlas.Trim = true
	l, err := level.LoadFile(context.Background(), writeMap(t, b), opts)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	w := &packWriter{dir: dir, base: "test", format: export.PNG, scale: 2}
	if err := w.writeLevel(l); err != nil {
		t.Fatalf("writeLevel: %v", err)
	}
	if w.files != 6 {
		t.Errorf("wrote %d files, want 6", w.files)
	}
	for _, name := range []string{"test_0_slot0.png", "test_0_slot3.png", "test_0_styles.png", "test.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "test.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if len(m.Faces) != 2 || m.Faces[0].Face != 0 || len(m.Faces[0].Styles) != 2 || m.Faces[0].Styles[1] != 5 {
		t.Errorf("manifest faces = %+v", m.Faces)
	}
	if len(m.Styles) != 2 || m.Styles[0] != 0 || m.Styles[1] != 5 {
		t.Errorf("manifest styles = %v", m.Styles)
	}
}

func TestSwitchOff(t *testing.T) {
	b := bsptest.New()
	b.AddQuad(2, 2, bsptest.Styles(32), fill(50))
	b.Entities = `{ "classname" "worldspawn" }
{ "classname" "light" "targetname" "door_lamp" "style" "32" }
`
	l, err := level.Load(context.Background(), b.Bytes(), level.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	table := lighting.NewDefaultTable()
	if _, err := l.RegisterSwitchable(table); err != nil {
		t.Fatal(err)
	}
	if got := table.Snapshot().Sample(32, 0); got != math.Splat(1) {
		t.Fatalf("registered switchable = %v", got)
	}
	if err := switchOff(table, l, "door_lamp"); err != nil {
		t.Fatal(err)
	}
	if got := table.Snapshot().Sample(32, 0); got != (math.Vec3{}) {
		t.Errorf("switched off light = %v", got)
	}
	if err := switchOff(table, l, "door_lamp, missing"); err == nil {
		t.Error("expected an error for an unknown targetname")
	}
}
