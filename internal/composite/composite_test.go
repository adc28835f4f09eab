package composite

import (
	"context"
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/formats"
	"github.com/Faultbox/bsplight/pkg/lightstyle"
	"github.com/Faultbox/bsplight/pkg/math"
)

func linear() Options {
	return Options{SRGB: false}
}

// singleFace packs one w x h face with the given styles. Slot k's samples
// are fill(k, i).
func singleFace(t *testing.T, w, h int, styles lightstyle.Slots, fill func(slot, i int) byte) *atlas.Atlas {
	t.Helper()
	light := &formats.LightLump{}
	for slot := 0; slot < styles.Len(); slot++ {
		for i := 0; i < w*h; i++ {
			light.Samples = append(light.Samples, fill(slot, i))
		}
	}
	faces := []formats.FaceLightInfo{{Width: w, Height: h, Styles: styles}}
	res, err := atlas.Pack2D(faces, light, atlas.Options{MaxWidth: w, MaxHeight: h})
	if err != nil {
		t.Fatalf("Pack2D failed: %v", err)
	}
	return res.Atlases[0]
}

func TestComposite2D_StyleSevenScenario(t *testing.T) {
	tbl := lighting.NewDefaultTable()
	if err := tbl.SetFunc(7, []math.Vec3{math.Splat(1), math.Splat(0.5)}, 4, 0); err != nil {
		t.Fatal(err)
	}
	a := singleFace(t, 1, 1, lightstyle.Of(7), func(int, int) byte { return 200 })
	c := New(tbl, linear())

	var out Texture2D
	if err := c.Composite2D(context.Background(), a, 0.24, &out); err != nil {
		t.Fatal(err)
	}
	want := float32(200) / 255
	if got := out.At(0, 0); math32.Abs(got[0]-want) > 1e-6 || got[3] != 1 {
		t.Errorf("t=0.24: %v, want %v", got, want)
	}

	if err := c.Composite2D(context.Background(), a, 0.26, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.At(0, 0); math32.Abs(got[0]-want*0.5) > 1e-6 {
		t.Errorf("t=0.26: %v, want %v", got, want*0.5)
	}
}

func TestComposite2D_Linearity(t *testing.T) {
	a := singleFace(t, 4, 3, lightstyle.Of(0, 1, 2), func(slot, i int) byte { return byte(20*slot + 7*i) })

	tbl := lighting.NewTable()
	set := func(style lightstyle.Style, v float32) {
		if err := tbl.Set(style, lighting.Constant(math.Splat(v))); err != nil {
			t.Fatal(err)
		}
	}
	c := New(tbl, linear())

	// Each slot alone.
	var parts [3]Texture2D
	for k := range parts {
		for s := lightstyle.Style(0); s < 3; s++ {
			v := float32(0)
			if int(s) == k {
				v = 1
			}
			set(s, v)
		}
		if err := c.Composite2D(context.Background(), a, 0, &parts[k]); err != nil {
			t.Fatal(err)
		}
	}

	set(0, 0.5)
	set(1, 2)
	set(2, 0.25)
	var out Texture2D
	if err := c.Composite2D(context.Background(), a, 0, &out); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(out.Pix); i += 4 {
		want := 0.5*parts[0].Pix[i] + 2*parts[1].Pix[i] + 0.25*parts[2].Pix[i]
		if math32.Abs(out.Pix[i]-want) > 1e-5 {
			t.Fatalf("texel %d = %v, want %v", i/4, out.Pix[i], want)
		}
	}
}

func TestComposite2D_MissingStyleIsZero(t *testing.T) {
	a := singleFace(t, 2, 2, lightstyle.Of(0, 99), func(int, int) byte { return 255 })
	c := New(lighting.NewDefaultTable(), linear())
	var out Texture2D
	if err := c.Composite2D(context.Background(), a, 1, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.At(1, 1); got != [4]float32{1, 1, 1, 1} {
		t.Errorf("texel = %v, want only style 0", got)
	}
}

func TestComposite2D_UnusedTexels(t *testing.T) {
	light := &formats.LightLump{Samples: []byte{255}}
	faces := []formats.FaceLightInfo{{Width: 1, Height: 1, Styles: lightstyle.Of(0)}}
	res, err := atlas.Pack2D(faces, light, atlas.Options{MaxWidth: 4, MaxHeight: 4})
	if err != nil {
		t.Fatal(err)
	}
	c := New(lighting.NewDefaultTable(), DefaultOptions())
	var out Texture2D
	if err := c.Composite2D(context.Background(), res.Atlases[0], 0, &out); err != nil {
		t.Fatal(err)
	}
	if got := out.At(3, 3); got != [4]float32{0, 0, 0, 1} {
		t.Errorf("empty texel = %v", got)
	}
}

func bigAtlas(t *testing.T) *atlas.Atlas {
	return singleFace(t, 64, 200, lightstyle.Of(0, 1, 2, 4), func(slot, i int) byte { return byte(i*31 + slot*17) })
}

func TestComposite2D_ParallelMatchesSequential(t *testing.T) {
	a := bigAtlas(t)
	tbl := lighting.NewDefaultTable()

	seq := New(tbl, Options{Workers: 1, SRGB: true})
	par := New(tbl, Options{Workers: 8, MinParallelRows: 1, SRGB: true})

	for _, tm := range []float32{0, 0.37, 12.9} {
		var a1, a2 Texture2D
		if err := seq.Composite2D(context.Background(), a, tm, &a1); err != nil {
			t.Fatal(err)
		}
		if err := par.Composite2D(context.Background(), a, tm, &a2); err != nil {
			t.Fatal(err)
		}
		for i := range a1.Pix {
			if math32.Float32bits(a1.Pix[i]) != math32.Float32bits(a2.Pix[i]) {
				t.Fatalf("t=%v: value %d differs: %v vs %v", tm, i, a1.Pix[i], a2.Pix[i])
			}
		}
	}
}

func TestComposite2D_Cancelled(t *testing.T) {
	a := bigAtlas(t)
	c := New(lighting.NewDefaultTable(), Options{Workers: 4, MinParallelRows: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out Texture2D
	if err := c.Composite2D(ctx, a, 0, &out); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestComposite3D(t *testing.T) {
	grid := &formats.LightGrid{
		Step: [3]float32{8, 8, 8},
		Size: math.IVec3{X: 2, Y: 1, Z: 1},
		Cells: []formats.VolumeCell{
			{Pos: math.IVec3{X: 1}, Styles: lightstyle.Of(0, 2), Colors: [4][3]uint8{{255, 0, 0}, {0, 255, 0}}},
		},
	}
	v, err := atlas.PackVolume(grid, atlas.VolumeOptions{Layout: atlas.LayoutDirectional})
	if err != nil {
		t.Fatal(err)
	}

	tbl := lighting.NewTable()
	_ = tbl.Set(0, lighting.Constant(math.Splat(1)))
	_ = tbl.Set(2, lighting.Constant(math.Splat(0.5)))
	c := New(tbl, linear())

	var out Texture3D
	if err := c.Composite3D(context.Background(), v, 0, &out); err != nil {
		t.Fatal(err)
	}
	if out.Width != 2 || out.Height != 2 || out.Depth != 3 {
		t.Fatalf("size %dx%dx%d", out.Width, out.Height, out.Depth)
	}
	p := v.CellTexel(math.IVec3{X: 1}, atlas.DirZ)
	if got := out.At(p.X, p.Y, p.Z); got != [4]float32{1, 0.5, 0, 1} {
		t.Errorf("cell = %v", got)
	}
	if got := out.At(0, 0, 0); got != [4]float32{0, 0, 0, 1} {
		t.Errorf("missing cell = %v", got)
	}
}

func TestDecode(t *testing.T) {
	s := New(lighting.NewTable(), DefaultOptions())
	if s.Decode(0) != 0 || math32.Abs(s.Decode(255)-1) > 1e-6 {
		t.Errorf("sRGB endpoints = %v %v", s.Decode(0), s.Decode(255))
	}
	if v := s.Decode(128); math32.Abs(v-0.2158605) > 1e-4 {
		t.Errorf("sRGB 128 = %v", v)
	}
	l := New(lighting.NewTable(), linear())
	if l.Decode(51) != 0.2 {
		t.Errorf("linear 51 = %v", l.Decode(51))
	}
}

func TestTracker(t *testing.T) {
	tbl := lighting.NewDefaultTable()
	var tr Tracker
	static := []lightstyle.Style{0}
	animated := []lightstyle.Style{0, 1}

	if !tr.NeedsUpdate(tbl.Snapshot(), static) {
		t.Error("first call must update")
	}
	if tr.NeedsUpdate(tbl.Snapshot(), static) {
		t.Error("constant styles with an unchanged table should skip")
	}
	if !tr.NeedsUpdate(tbl.Snapshot(), animated) {
		t.Error("animated styles always update")
	}

	_ = tbl.Set(0, lighting.Constant(math.Splat(0.5)))
	if !tr.NeedsUpdate(tbl.Snapshot(), static) {
		t.Error("table change must update")
	}
	if tr.NeedsUpdate(tbl.Snapshot(), static) {
		t.Error("second call after a table change should skip")
	}

	tr.Invalidate()
	if !tr.NeedsUpdate(tbl.Snapshot(), static) {
		t.Error("Invalidate must force an update")
	}
}
