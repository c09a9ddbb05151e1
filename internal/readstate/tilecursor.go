package readstate

import "github.com/ndstore/arrayread/internal/schema"

// TileCursor enumerates the tile coordinates of a query range
// intersected with the array's tile grid, in tile order.
type TileCursor[T schema.Signed] struct {
	sch        *schema.Schema[T]
	tileDomain [][2]T
	cur        []T
	exhausted  bool
}

// NewTileCursor projects queryRange into tile coordinates, clipped to
// the schema's own tile domain. A cursor over an empty intersection
// starts (and stays) exhausted.
func NewTileCursor[T schema.Signed](sch *schema.Schema[T], queryRange [][2]T) *TileCursor[T] {
	full := sch.TileDomain()
	proj := make([][2]T, sch.Dims)
	for i := 0; i < sch.Dims; i++ {
		lo := T(int64(queryRange[i][0]-sch.Domain[i][0]) / int64(sch.TileExtent[i]))
		hi := T(int64(queryRange[i][1]-sch.Domain[i][0]) / int64(sch.TileExtent[i]))
		if lo < full[i][0] {
			lo = full[i][0]
		}
		if hi > full[i][1] {
			hi = full[i][1]
		}
		proj[i] = [2]T{lo, hi}
	}
	tc := &TileCursor[T]{sch: sch, tileDomain: proj}
	for i := range proj {
		if proj[i][0] > proj[i][1] {
			tc.exhausted = true
			return tc
		}
	}
	tc.cur = schema.LowCorner(proj)
	return tc
}

// Coords returns the tile coordinates the cursor currently sits on,
// or nil if exhausted.
func (tc *TileCursor[T]) Coords() []T {
	if tc.exhausted {
		return nil
	}
	return tc.cur
}

// Exhausted reports whether every tile of the projected query range
// has been visited.
func (tc *TileCursor[T]) Exhausted() bool { return tc.exhausted }

// TileDomain returns the projected, clipped tile-coordinate rectangle
// the cursor walks.
func (tc *TileCursor[T]) TileDomain() [][2]T { return tc.tileDomain }

// Advance moves the cursor to the next tile in tile order, marking it
// exhausted once it leaves the projected rectangle.
func (tc *TileCursor[T]) Advance() {
	if tc.exhausted {
		return
	}
	next := append([]T(nil), tc.cur...)
	if !tc.sch.AdvanceInRect(tc.tileDomain, next) {
		tc.exhausted = true
		tc.cur = nil
		return
	}
	tc.cur = next
}
