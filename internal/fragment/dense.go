package fragment

import (
	"github.com/ndstore/arrayread/internal/schema"
)

// DenseFragment is an in-memory, densely-stored fragment: every cell
// inside Bounds has a value for every attribute. Standing in for the
// real on-disk dense tile store (out of scope for this module).
type DenseFragment[T schema.Numeric] struct {
	sch    *schema.Schema[T]
	bounds [][2]T   // global-coordinate rectangle this fragment covers
	data   [][]byte // data[attrIdx] laid out in schema cell order across Bounds

	ownTileRect [][2]T // Bounds projected to tile coordinates
	cur         []T    // current tile coords, nil if exhausted or not yet started
	started     bool

	overflow []bool
}

// NewDenseFragment constructs a dense fragment over bounds, with data
// already laid out per attribute in the schema's cell order across
// that rectangle (row-major or column-major matching sch.Order).
func NewDenseFragment[T schema.Numeric](sch *schema.Schema[T], bounds [][2]T, data [][]byte) *DenseFragment[T] {
	ownTileRect, _ := sch.TileRectForBounds(bounds)
	return &DenseFragment[T]{
		sch:         sch,
		bounds:      bounds,
		data:        data,
		ownTileRect: ownTileRect,
		overflow:    make([]bool, len(sch.Attributes)),
	}
}

func (f *DenseFragment[T]) Dense() bool { return true }

func (f *DenseFragment[T]) ResetOverflow() {
	for i := range f.overflow {
		f.overflow[i] = false
	}
}

func (f *DenseFragment[T]) Overflow(attr int) bool { return f.overflow[attr] }

func (f *DenseFragment[T]) GetNextOverlappingTileMult(queryTileDomain [][2]T) {
	if f.ownTileRect == nil {
		f.cur = nil
		f.started = true
		return
	}
	rect, ok := schema.IntersectRect(f.ownTileRect, queryTileDomain)
	if !ok {
		f.cur = nil
		f.started = true
		return
	}
	if !f.started {
		f.started = true
		f.cur = schema.LowCorner(rect)
		return
	}
	if f.cur == nil {
		return
	}
	next := append([]T(nil), f.cur...)
	if !f.sch.AdvanceInRect(rect, next) {
		f.cur = nil
		return
	}
	f.cur = next
}

func (f *DenseFragment[T]) GetGlobalTileCoords() []T { return f.cur }

func (f *DenseFragment[T]) MaxOverlap(rangeInTile [][2]T) bool {
	if f.cur == nil {
		return false
	}
	origin := f.sch.TileOrigin(f.cur)
	for i := 0; i < f.sch.Dims; i++ {
		lo := origin[i] + rangeInTile[i][0]
		hi := origin[i] + rangeInTile[i][1]
		if lo < f.bounds[i][0] || hi > f.bounds[i][1] {
			return false
		}
	}
	return true
}

func (f *DenseFragment[T]) CoordsExist(p []T) bool {
	return schema.ContainsPoint(f.bounds, p)
}

func (f *DenseFragment[T]) GetFirstTwoCoords(start []T) (first, second []T, err error) {
	// Dense fragments are never popped through the sparse-expansion
	// branch of PerTileMerge; present for interface conformance.
	return nil, nil, readErrorf("GetFirstTwoCoords called on dense fragment")
}

func (f *DenseFragment[T]) ComputeFragmentCellRanges(fragmentID int32, overlap [][2]T, out *[]FragmentCellRange[T]) error {
	clipped, ok := schema.IntersectRect(overlap, f.bounds)
	if !ok {
		return nil
	}
	for _, slab := range f.sch.DecomposeSlabs(clipped) {
		*out = append(*out, FragmentCellRange[T]{
			FragmentID: fragmentID,
			Range:      CellRange[T]{A: schema.LowCorner(slab), B: schema.HighCorner(slab)},
		})
	}
	return nil
}

func (f *DenseFragment[T]) GetCellPosRangesSparse(tileDomain [][2]T, r CellRange[T]) ([]CellPosRange, error) {
	return nil, readErrorf("GetCellPosRangesSparse called on dense fragment")
}

// CopyCellRange copies cells [r.P0, r.P1] — tile-local linear
// positions within the tile at tileCoords — of attribute attr into
// buf, honoring cell size and buffer capacity. data is laid out in
// schema cell order across the fragment's whole Bounds (see
// NewDenseFragment), not per-tile, so each tile-local position is
// first decoded back to tile-local coordinates, shifted to the tile's
// global origin, and re-linearized relative to Bounds before indexing
// data.
func (f *DenseFragment[T]) CopyCellRange(attr int, buf []byte, offset *int, r CellPosRange, tileCoords []T) error {
	cellSize := f.sch.Attributes[attr].CellSize
	src := f.data[attr]

	origin := f.sch.TileOrigin(tileCoords)
	boundsExtent := make([]int64, f.sch.Dims)
	for i := range boundsExtent {
		boundsExtent[i] = int64(f.bounds[i][1]-f.bounds[i][0]) + 1
	}

	boundsRelative := make([]T, f.sch.Dims)
	n := int(r.P1 - r.P0 + 1)
	for i := 0; i < n; i++ {
		tileLocal := f.sch.DecodeCellPos(r.P0 + int64(i))
		for d := 0; d < f.sch.Dims; d++ {
			boundsRelative[d] = origin[d] + tileLocal[d] - f.bounds[d][0]
		}
		srcOff := int(f.sch.LinearizeRect(boundsRelative, boundsExtent)) * cellSize
		if srcOff < 0 || srcOff+cellSize > len(src) {
			return readErrorf("cell position range out of fragment bounds")
		}
		if *offset+cellSize > len(buf) {
			f.overflow[attr] = true
			return nil
		}
		copy(buf[*offset:*offset+cellSize], src[srcOff:srcOff+cellSize])
		*offset += cellSize
	}
	return nil
}

func (f *DenseFragment[T]) TileDone(attr int) {}
