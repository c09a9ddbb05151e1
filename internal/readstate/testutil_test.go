package readstate

import (
	"encoding/binary"
	"testing"

	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// newSchema builds the row-major 2D int64 domain [0,9]x[0,9], tile
// extent 5x5, single int32 attribute "a" schema every scenario in
// spec.md §8 is defined against.
func newSchema(t *testing.T) *schema.Schema[int64] {
	t.Helper()
	sch, err := schema.New[int64](
		[][2]int64{{0, 9}, {0, 9}},
		[]int64{5, 5},
		schema.RowMajor,
		[]schema.Attribute{{Name: "a", CellSize: 4, FillValue: []byte{0, 0, 0, 0}}},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	return sch
}

func denseFragmentOver(t *testing.T, sch *schema.Schema[int64], bounds [][2]int64, value func(r, c int64) uint32) *fragment.DenseFragment[int64] {
	t.Helper()
	rows := bounds[0][1] - bounds[0][0] + 1
	cols := bounds[1][1] - bounds[1][0] + 1
	data := make([]byte, rows*cols*4)
	for r := int64(0); r < rows; r++ {
		for c := int64(0); c < cols; c++ {
			pos := r*cols + c
			binary.LittleEndian.PutUint32(data[pos*4:pos*4+4], value(bounds[0][0]+r, bounds[1][0]+c))
		}
	}
	return fragment.NewDenseFragment(sch, bounds, [][]byte{data})
}

func sparseFragmentAt(t *testing.T, sch *schema.Schema[int64], coords [][]int64, values []uint32) *fragment.SparseFragment[int64] {
	t.Helper()
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], v)
	}
	return fragment.NewSparseFragment(sch, coords, [][]byte{data})
}

func s1Value(r, c int64) uint32 { return uint32(10*r + c) }

// cellAt locates global cell (r,c) inside the flat cell sequence a
// full-domain Read produces against newSchema's 10x10 domain / 5x5
// tile grid. TileCursor visits the 2x2 tile grid in row-major tile
// order and RangeToPosition normalizes each tile's ranges against
// that tile's own origin, so a query spanning more than one tile is
// emitted as one contiguous 25-cell row-major block per tile, not a
// single global row-major sequence — a multi-tile query's got[r*10+c]
// is not generally cell (r,c).
func cellAt(got []uint32, r, c int64) uint32 {
	const tileExtent = 5
	const tileCols = 2
	tileRow, tileCol := r/tileExtent, c/tileExtent
	lr, lc := r%tileExtent, c%tileExtent
	block := tileRow*tileCols + tileCol
	return got[block*(tileExtent*tileExtent)+lr*tileExtent+lc]
}

func readAll(t *testing.T, rs *ReadState[int64], attr int, bufSize int) []uint32 {
	t.Helper()
	var out []uint32
	for {
		buf := make([]byte, bufSize)
		written, status, err := rs.Read(map[int][]byte{attr: buf})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		n := written[attr]
		for i := 0; i+4 <= n; i += 4 {
			out = append(out, binary.LittleEndian.Uint32(buf[i:i+4]))
		}
		if status == Ok {
			break
		}
		if n == 0 && status == Overflow {
			t.Fatal("Read made no progress yet reported overflow")
		}
	}
	return out
}
