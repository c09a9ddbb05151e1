package fragment

import (
	"sort"

	"github.com/ndstore/arrayread/internal/schema"
)

// SparseFragment is an in-memory, sparsely-stored fragment: only the
// coordinates explicitly listed in Coords have cell values. Coords is
// kept sorted in the schema's cell order, mirroring the sorted-run
// storage a real sparse fragment would expose.
type SparseFragment[T schema.Numeric] struct {
	sch    *schema.Schema[T]
	bounds [][2]T // bounding rectangle of Coords, in global coordinates
	coords [][]T  // sorted in sch cell order
	data   [][]byte

	ownTileRect [][2]T
	cur         []T
	started     bool

	overflow []bool
}

// NewSparseFragment constructs a sparse fragment from an unsorted set
// of coordinates and per-attribute cell values (data[attrIdx] holds
// one CellSize-byte cell per entry in coords, same order as coords
// before sorting is applied).
func NewSparseFragment[T schema.Numeric](sch *schema.Schema[T], coords [][]T, data [][]byte) *SparseFragment[T] {
	order := make([]int, len(coords))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return sch.CellOrderCmp(coords[order[i]], coords[order[j]]) < 0
	})

	sortedCoords := make([][]T, len(coords))
	sortedData := make([][]byte, len(data))
	for a := range data {
		sortedData[a] = make([]byte, len(data[a]))
	}
	for newIdx, oldIdx := range order {
		sortedCoords[newIdx] = coords[oldIdx]
		for a := range data {
			cellSize := sch.Attributes[a].CellSize
			copy(sortedData[a][newIdx*cellSize:(newIdx+1)*cellSize], data[a][oldIdx*cellSize:(oldIdx+1)*cellSize])
		}
	}

	bounds := boundingRect(sch.Dims, sortedCoords)
	f := &SparseFragment[T]{
		sch:      sch,
		bounds:   bounds,
		coords:   sortedCoords,
		data:     sortedData,
		overflow: make([]bool, len(sch.Attributes)),
	}
	if bounds != nil {
		f.ownTileRect, _ = sch.TileRectForBounds(bounds)
	}
	return f
}

func boundingRect[T schema.Numeric](dims int, coords [][]T) [][2]T {
	if len(coords) == 0 {
		return nil
	}
	out := make([][2]T, dims)
	for i := 0; i < dims; i++ {
		out[i] = [2]T{coords[0][i], coords[0][i]}
	}
	for _, c := range coords[1:] {
		for i := 0; i < dims; i++ {
			if c[i] < out[i][0] {
				out[i][0] = c[i]
			}
			if c[i] > out[i][1] {
				out[i][1] = c[i]
			}
		}
	}
	return out
}

func (f *SparseFragment[T]) Dense() bool { return false }

func (f *SparseFragment[T]) ResetOverflow() {
	for i := range f.overflow {
		f.overflow[i] = false
	}
}

func (f *SparseFragment[T]) Overflow(attr int) bool { return f.overflow[attr] }

func (f *SparseFragment[T]) GetNextOverlappingTileMult(queryTileDomain [][2]T) {
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
		cand := schema.LowCorner(rect)
		if f.tileHasCoords(cand) {
			f.cur = cand
			return
		}
		f.advanceToNextNonEmpty(rect)
		return
	}
	if f.cur == nil {
		return
	}
	f.advanceToNextNonEmpty(rect)
}

// advanceToNextNonEmpty walks f.cur forward within rect, skipping
// tiles the fragment has no stored coordinates in.
func (f *SparseFragment[T]) advanceToNextNonEmpty(rect [][2]T) {
	next := append([]T(nil), f.cur...)
	for {
		if !f.sch.AdvanceInRect(rect, next) {
			f.cur = nil
			return
		}
		if f.tileHasCoords(next) {
			f.cur = next
			return
		}
	}
}

func (f *SparseFragment[T]) tileHasCoords(tileCoords []T) bool {
	tileRect := f.sch.TileRectAbs(tileCoords)
	for _, c := range f.coords {
		if schema.ContainsPoint(tileRect, c) {
			return true
		}
	}
	return false
}

func (f *SparseFragment[T]) GetGlobalTileCoords() []T { return f.cur }

// MaxOverlap is always false for sparse fragments: a sparse fragment
// never fully covers a tile range the way a dense fragment can,
// since there is no guarantee every coordinate in rangeInTile is
// physically stored.
func (f *SparseFragment[T]) MaxOverlap(rangeInTile [][2]T) bool { return false }

func (f *SparseFragment[T]) CoordsExist(p []T) bool {
	for _, c := range f.coords {
		if coordsEqual(c, p) {
			return true
		}
	}
	return false
}

func coordsEqual[T schema.Numeric](a, b []T) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (f *SparseFragment[T]) GetFirstTwoCoords(start []T) (first, second []T, err error) {
	idx := sort.Search(len(f.coords), func(i int) bool {
		return f.sch.CellOrderCmp(f.coords[i], start) >= 0
	})
	if idx >= len(f.coords) {
		return nil, nil, nil
	}
	first = f.coords[idx]
	if idx+1 < len(f.coords) {
		second = f.coords[idx+1]
	}
	return first, second, nil
}

// ComputeFragmentCellRanges emits one unary range per physically
// stored coordinate that falls inside overlap, in cell order.
func (f *SparseFragment[T]) ComputeFragmentCellRanges(fragmentID int32, overlap [][2]T, out *[]FragmentCellRange[T]) error {
	for _, c := range f.coords {
		if schema.ContainsPoint(overlap, c) {
			*out = append(*out, FragmentCellRange[T]{
				FragmentID: fragmentID,
				Range:      CellRange[T]{A: c, B: c},
			})
		}
	}
	return nil
}

// GetCellPosRangesSparse converts a (possibly non-unary, but always
// contiguous-in-storage) sparse cell range into the tile-local
// position ranges it occupies, by locating each endpoint's storage
// index and reporting contiguous runs of storage-adjacent indices
// that also fall within the requested coordinate range.
func (f *SparseFragment[T]) GetCellPosRangesSparse(tileDomain [][2]T, r CellRange[T]) ([]CellPosRange, error) {
	lo := sort.Search(len(f.coords), func(i int) bool {
		return f.sch.CellOrderCmp(f.coords[i], r.A) >= 0
	})
	hi := sort.Search(len(f.coords), func(i int) bool {
		return f.sch.CellOrderCmp(f.coords[i], r.B) > 0
	})
	if lo >= hi {
		return nil, nil
	}
	return []CellPosRange{{P0: int64(lo), P1: int64(hi - 1)}}, nil
}

// CopyCellRange ignores tileCoords: r is already expressed in storage
// index space (see GetCellPosRangesSparse), not tile-local position
// space, so no tile-origin remapping is needed.
func (f *SparseFragment[T]) CopyCellRange(attr int, buf []byte, offset *int, r CellPosRange, tileCoords []T) error {
	cellSize := f.sch.Attributes[attr].CellSize
	src := f.data[attr]
	n := int(r.P1 - r.P0 + 1)
	for i := 0; i < n; i++ {
		srcOff := (int(r.P0) + i) * cellSize
		if srcOff+cellSize > len(src) {
			return readErrorf("sparse cell position range out of fragment bounds")
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

func (f *SparseFragment[T]) TileDone(attr int) {}
