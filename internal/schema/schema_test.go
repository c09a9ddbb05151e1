package schema

import "testing"

func testSchema(t *testing.T, order CellOrder) *Schema[int64] {
	t.Helper()
	sch, err := New[int64](
		[][2]int64{{0, 9}, {0, 9}},
		[]int64{5, 5},
		order,
		[]Attribute{{Name: "a", CellSize: 4, FillValue: []byte{0, 0, 0, 0}}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sch
}

func TestNewValidatesDomain(t *testing.T) {
	cases := []struct {
		name       string
		domain     [][2]int64
		tileExtent []int64
		wantErr    bool
	}{
		{"ok", [][2]int64{{0, 9}}, []int64{5}, false},
		{"lo exceeds hi", [][2]int64{{9, 0}}, []int64{5}, true},
		{"zero tile extent", [][2]int64{{0, 9}}, []int64{0}, true},
		{"mismatched dims", [][2]int64{{0, 9}}, []int64{5, 5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New[int64](tc.domain, tc.tileExtent, RowMajor, nil)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCellOrderCmp(t *testing.T) {
	cases := []struct {
		name  string
		order CellOrder
		a, b  []int64
		want  int
	}{
		{"row-major earlier row", RowMajor, []int64{1, 9}, []int64{2, 0}, -1},
		{"row-major same row later col", RowMajor, []int64{1, 2}, []int64{1, 1}, 1},
		{"row-major equal", RowMajor, []int64{1, 1}, []int64{1, 1}, 0},
		{"column-major earlier col", ColumnMajor, []int64{9, 1}, []int64{0, 2}, -1},
		{"column-major same col later row", ColumnMajor, []int64{2, 1}, []int64{1, 1}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CellOrderCmp(tc.order, tc.a, tc.b); got != tc.want {
				t.Errorf("CellOrderCmp(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestGetNextCellCoordsWrapsRowMajor(t *testing.T) {
	sch := testSchema(t, RowMajor)
	tileDomain := [][2]int64{{0, 4}, {0, 4}}
	coords := []int64{0, 4}
	sch.GetNextCellCoords(tileDomain, coords)
	want := []int64{1, 0}
	if coords[0] != want[0] || coords[1] != want[1] {
		t.Errorf("got %v, want %v", coords, want)
	}
}

func TestGetPreviousCellCoordsIsInverse(t *testing.T) {
	sch := testSchema(t, RowMajor)
	tileDomain := [][2]int64{{0, 4}, {0, 4}}
	coords := []int64{2, 3}
	orig := append([]int64(nil), coords...)
	sch.GetNextCellCoords(tileDomain, coords)
	sch.GetPreviousCellCoords(tileDomain, coords)
	if coords[0] != orig[0] || coords[1] != orig[1] {
		t.Errorf("next then previous = %v, want %v", coords, orig)
	}
}

func TestGetCellPosRowMajor(t *testing.T) {
	sch := testSchema(t, RowMajor)
	if got := sch.GetCellPos([]int64{0, 0}); got != 0 {
		t.Errorf("GetCellPos(0,0) = %d, want 0", got)
	}
	if got := sch.GetCellPos([]int64{1, 0}); got != 5 {
		t.Errorf("GetCellPos(1,0) = %d, want 5", got)
	}
	if got := sch.GetCellPos([]int64{4, 4}); got != 24 {
		t.Errorf("GetCellPos(4,4) = %d, want 24", got)
	}
}

func TestGetCellPosColumnMajor(t *testing.T) {
	sch := testSchema(t, ColumnMajor)
	if got := sch.GetCellPos([]int64{0, 1}); got != 5 {
		t.Errorf("GetCellPos(0,1) = %d, want 5", got)
	}
}

func TestCellsPerTile(t *testing.T) {
	sch := testSchema(t, RowMajor)
	if got := sch.CellsPerTile(); got != 25 {
		t.Errorf("CellsPerTile() = %d, want 25", got)
	}
}

func TestTileDomain(t *testing.T) {
	sch := testSchema(t, RowMajor)
	td := sch.TileDomain()
	want := [][2]int64{{0, 1}, {0, 1}}
	for i := range want {
		if td[i] != want[i] {
			t.Errorf("TileDomain()[%d] = %v, want %v", i, td[i], want[i])
		}
	}
}
