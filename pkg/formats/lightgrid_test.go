package formats_test

import (
	"strings"
	"testing"

	"github.com/Faultbox/bsplight/pkg/formats"
	"github.com/Faultbox/bsplight/pkg/formats/bsptest"
	lmath "github.com/Faultbox/bsplight/pkg/math"
)

func parseGrid(t *testing.T, g *bsptest.Grid) *formats.BSP {
	t.Helper()
	b := bsptest.New()
	b.BSPX = []bsptest.Extension{{Name: formats.BSPXLightGrid, Data: g.Bytes()}}
	bsp, err := formats.ParseBSP(b.Bytes())
	if err != nil {
		t.Fatalf("ParseBSP failed: %v", err)
	}
	return bsp
}

func TestParseLightGrid(t *testing.T) {
	g := &bsptest.Grid{
		Step: [3]float32{32, 32, 64},
		Size: [3]int32{2, 2, 1},
		Mins: [3]float32{-64, -64, 0},
		Leafs: []bsptest.GridLeaf{{
			Size: [3]int32{2, 2, 1},
			Cells: [][]bsptest.GridSample{
				{{Style: 0, RGB: [3]byte{10, 20, 30}}},
				nil,
				{{Style: 0, RGB: [3]byte{1, 1, 1}}, {Style: 5, RGB: [3]byte{2, 2, 2}}},
				{},
			},
		}},
	}

	bsp := parseGrid(t, g)
	grid := bsp.Grid
	if grid == nil {
		t.Fatalf("expected a light grid, warnings: %v", bsp.Warnings)
	}
	if grid.Size != (lmath.IVec3{X: 2, Y: 2, Z: 1}) {
		t.Errorf("Size = %+v", grid.Size)
	}
	if grid.Step != [3]float32{32, 32, 64} || grid.Mins != [3]float32{-64, -64, 0} {
		t.Errorf("Step/Mins = %v %v", grid.Step, grid.Mins)
	}
	if len(grid.Cells) != 3 {
		t.Fatalf("expected 3 present cells, got %d", len(grid.Cells))
	}

	first := grid.Cells[0]
	if first.Pos != (lmath.IVec3{}) || first.Colors[0] != [3]uint8{10, 20, 30} {
		t.Errorf("first cell = %+v", first)
	}

	second := grid.Cells[1]
	if second.Pos != (lmath.IVec3{X: 0, Y: 1, Z: 0}) {
		t.Errorf("second cell at %+v, want (0,1,0)", second.Pos)
	}
	if st, _ := second.Styles.At(1); second.Styles.Len() != 2 || st != 5 || second.Colors[1] != [3]uint8{2, 2, 2} {
		t.Errorf("second cell styles = %v colors = %v", second.Styles, second.Colors)
	}

	if third := grid.Cells[2]; third.Styles.Len() != 0 {
		t.Errorf("zero-sample cell should be present but unlit, got %v", third.Styles)
	}

	if p := grid.WorldPos(lmath.IVec3{X: 1, Y: 1, Z: 1}); p != [3]float32{-32, -32, 64} {
		t.Errorf("WorldPos = %v", p)
	}
	if len(bsp.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", bsp.Warnings)
	}
}

func TestParseLightGrid_TooManyStyles(t *testing.T) {
	var samples []bsptest.GridSample
	for s := byte(0); s < 6; s++ {
		samples = append(samples, bsptest.GridSample{Style: s, RGB: [3]byte{s, s, s}})
	}
	g := &bsptest.Grid{
		Step:  [3]float32{8, 8, 8},
		Size:  [3]int32{1, 1, 1},
		Leafs: []bsptest.GridLeaf{{Size: [3]int32{1, 1, 1}, Cells: [][]bsptest.GridSample{samples}}},
	}

	bsp := parseGrid(t, g)
	if bsp.Grid == nil || len(bsp.Grid.Cells) != 1 {
		t.Fatalf("expected one cell")
	}
	if n := bsp.Grid.Cells[0].Styles.Len(); n != 4 {
		t.Errorf("cell kept %d styles, want 4", n)
	}
	if len(bsp.Warnings) != 1 || !strings.Contains(bsp.Warnings[0].Reason, "beyond") {
		t.Errorf("expected one overflow warning, got %v", bsp.Warnings)
	}
}

func TestParseLightGrid_OutsideCellsAndMissingLeaf(t *testing.T) {
	g := &bsptest.Grid{
		Step: [3]float32{8, 8, 8},
		Size: [3]int32{1, 1, 1},
		Leafs: []bsptest.GridLeaf{{
			Mins:  [3]int32{0, 0, 0},
			Size:  [3]int32{2, 1, 1},
			Cells: [][]bsptest.GridSample{{{Style: 0}}, {{Style: 0}}},
		}},
		Nodes: [][8]uint32{{
			bsptest.GridLeafFlag | 0,
			bsptest.GridLeafFlag | 7,
			bsptest.GridMissingFlag, bsptest.GridMissingFlag, bsptest.GridMissingFlag,
			bsptest.GridMissingFlag, bsptest.GridMissingFlag, bsptest.GridMissingFlag,
		}},
	}

	bsp := parseGrid(t, g)
	if bsp.Grid == nil || len(bsp.Grid.Cells) != 1 {
		t.Fatalf("expected the in-bounds cell only, got %+v", bsp.Grid)
	}
	if len(bsp.Warnings) != 2 {
		t.Errorf("expected warnings for missing leaf and outside cell, got %v", bsp.Warnings)
	}
}

func TestParseLightGrid_UnreachedLeaf(t *testing.T) {
	g := &bsptest.Grid{
		Step: [3]float32{8, 8, 8},
		Size: [3]int32{2, 1, 1},
		Leafs: []bsptest.GridLeaf{
			{Mins: [3]int32{0, 0, 0}, Size: [3]int32{1, 1, 1}, Cells: [][]bsptest.GridSample{{{Style: 0}}}},
			{Mins: [3]int32{1, 0, 0}, Size: [3]int32{1, 1, 1}, Cells: [][]bsptest.GridSample{{{Style: 1}}}},
		},
		Root: bsptest.GridLeafFlag | 1,
		// An empty, non-nil node list keeps the builder from generating
		// a root node.
		Nodes: [][8]uint32{},
	}

	bsp := parseGrid(t, g)
	if bsp.Grid == nil || len(bsp.Grid.Cells) != 1 {
		t.Fatalf("expected one reachable cell, got %+v", bsp.Grid)
	}
	if st, _ := bsp.Grid.Cells[0].Styles.At(0); st != 1 {
		t.Errorf("reached the wrong leaf: style %d", st)
	}
}

func TestParseLightGrid_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", make([]byte, 20)},
		{"zero size", (&bsptest.Grid{Step: [3]float32{8, 8, 8}}).Bytes()},
		{"truncated leaf", func() []byte {
			d := (&bsptest.Grid{
				Step:  [3]float32{8, 8, 8},
				Size:  [3]int32{4, 4, 4},
				Leafs: []bsptest.GridLeaf{{Size: [3]int32{4, 4, 4}, Cells: make([][]bsptest.GridSample, 64)}},
			}).Bytes()
			return d[:len(d)-10]
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bsptest.New()
			b.BSPX = []bsptest.Extension{{Name: formats.BSPXLightGrid, Data: tt.data}}
			bsp, err := formats.ParseBSP(b.Bytes())
			if err != nil {
				t.Fatalf("malformed grid must not fail the load: %v", err)
			}
			if len(bsp.Warnings) == 0 {
				t.Error("expected a warning")
			}
			if bsp.Grid != nil && len(bsp.Grid.Cells) != 0 {
				t.Errorf("expected no cells, got %d", len(bsp.Grid.Cells))
			}
		})
	}
}
