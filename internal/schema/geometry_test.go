package schema

import "testing"

func TestIntersectRect(t *testing.T) {
	a := [][2]int64{{0, 9}, {0, 9}}
	b := [][2]int64{{2, 6}, {2, 6}}
	got, ok := IntersectRect(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	want := [][2]int64{{2, 6}, {2, 6}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	_, ok = IntersectRect([][2]int64{{0, 1}}, [][2]int64{{5, 6}})
	if ok {
		t.Error("expected no overlap")
	}
}

func TestTileRectForBounds(t *testing.T) {
	sch := testSchema(t, RowMajor)
	rect, ok := sch.TileRectForBounds([][2]int64{{2, 6}, {2, 6}})
	if !ok {
		t.Fatal("expected overlap")
	}
	want := [][2]int64{{0, 1}, {0, 1}}
	for i := range want {
		if rect[i] != want[i] {
			t.Errorf("rect[%d] = %v, want %v", i, rect[i], want[i])
		}
	}
}

func TestTileRectAbs(t *testing.T) {
	sch := testSchema(t, RowMajor)
	rect := sch.TileRectAbs([]int64{1, 1})
	want := [][2]int64{{5, 9}, {5, 9}}
	for i := range want {
		if rect[i] != want[i] {
			t.Errorf("rect[%d] = %v, want %v", i, rect[i], want[i])
		}
	}
}

func TestDecomposeSlabsFullTileIsOneSlab(t *testing.T) {
	sch := testSchema(t, RowMajor)
	rect := [][2]int64{{5, 9}, {5, 9}}
	slabs := sch.DecomposeSlabs(rect)
	if len(slabs) != 1 {
		t.Fatalf("expected 1 slab for a full tile, got %d", len(slabs))
	}
}

func TestDecomposeSlabsNonContigSplitsPerRow(t *testing.T) {
	sch := testSchema(t, RowMajor)
	// [1,3]x[2,4] inside tile [0,4]x[0,4]: not full width on axis 1,
	// so it decomposes into 3 row slabs.
	rect := [][2]int64{{1, 3}, {2, 4}}
	slabs := sch.DecomposeSlabs(rect)
	if len(slabs) != 3 {
		t.Fatalf("expected 3 slabs, got %d: %v", len(slabs), slabs)
	}
	for i, slab := range slabs {
		wantRow := int64(1 + i)
		if slab[0][0] != wantRow || slab[0][1] != wantRow {
			t.Errorf("slab[%d] row = %v, want fixed at %d", i, slab[0], wantRow)
		}
		if slab[1][0] != 2 || slab[1][1] != 4 {
			t.Errorf("slab[%d] col span = %v, want [2,4]", i, slab[1])
		}
	}
}

func TestAdvanceInRectExhausts(t *testing.T) {
	sch := testSchema(t, RowMajor)
	rect := [][2]int64{{0, 1}, {0, 1}}
	coords := []int64{0, 0}
	steps := 0
	for sch.AdvanceInRect(rect, coords) {
		steps++
		if steps > 10 {
			t.Fatal("AdvanceInRect did not terminate")
		}
	}
	if steps != 3 {
		t.Errorf("expected 3 successful advances over a 2x2 rect, got %d", steps)
	}
}
