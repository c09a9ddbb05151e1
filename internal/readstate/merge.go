package readstate

import (
	"container/heap"

	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// mergeContext carries the per-tile inputs PerTileMerge needs beyond
// the heap itself: the schema for cell-order arithmetic, the tile's
// absolute bounding rectangle (for next_cell/prev_cell bounding and
// the sparse-expansion off-tile check), and a lookup from fragment id
// to Fragment, for sparse unary expansion and existence checks.
type mergeContext[T schema.Signed] struct {
	sch      *schema.Schema[T]
	tileAbs  [][2]T
	byID     map[int32]fragment.Fragment[T]
	tileEnd  []T
}

func newMergeContext[T schema.Signed](sch *schema.Schema[T], tileCoords []T, slots []fragmentSlot[T]) *mergeContext[T] {
	tileAbs := sch.TileRectAbs(tileCoords)
	byID := make(map[int32]fragment.Fragment[T], len(slots))
	for _, s := range slots {
		byID[s.id] = s.frg
	}
	return &mergeContext[T]{
		sch:     sch,
		tileAbs: tileAbs,
		byID:    byID,
		tileEnd: schema.HighCorner(tileAbs),
	}
}

func (mc *mergeContext[T]) isUnary(r fragment.CellRange[T]) bool {
	return mc.sch.CellOrderCmp(r.A, r.B) == 0
}

func (mc *mergeContext[T]) isDense(fragmentID int32) bool {
	if fragmentID == emptyFragmentID {
		return true
	}
	return mc.byID[fragmentID].Dense()
}

// PerTileMerge runs the priority-queue sweep over the current tile's
// unsorted FragmentCellRange contributions, realizing (I2) strict
// cell-order partitioning and (I3) newest-fragment-wins precedence.
// Mirrors compute_fragment_cell_pos_ranges's inner loop (spec §4.E).
func PerTileMerge[T schema.Signed](sch *schema.Schema[T], tileCoords []T, slots []fragmentSlot[T], input []fragment.FragmentCellRange[T]) ([]fragment.FragmentCellRange[T], error) {
	mc := newMergeContext(sch, tileCoords, slots)

	h := &rangeHeap[T]{order: sch.Order}
	h.items = append(h.items, input...)
	heap.Init(h)

	var result []fragment.FragmentCellRange[T]

	for h.Len() > 0 {
		p := heap.Pop(h).(fragment.FragmentCellRange[T])

		if h.Len() == 0 {
			if mc.isDense(p.FragmentID) || !mc.isUnary(p.Range) || existsIfSparse(mc, p) {
				result = append(result, p)
			}
			break
		}

		if mc.isDense(p.FragmentID) || mc.isUnary(p.Range) {
			if !mc.isDense(p.FragmentID) && !existsIfSparse(mc, p) {
				continue
			}
			emitted, err := mergeUnaryOrDense(mc, h, p)
			if err != nil {
				return nil, err
			}
			result = append(result, emitted)
			continue
		}

		// Case 2: P is multi-cell sparse.
		top, _ := h.peek()
		if mc.sch.CellOrderCmp(top.Range.A, p.Range.B) > 0 {
			result = append(result, p)
			continue
		}

		frg := mc.byID[p.FragmentID]
		first, second, err := frg.GetFirstTwoCoords(p.Range.A)
		if err != nil {
			return nil, err
		}
		if first == nil {
			continue
		}
		if mc.sch.CellOrderCmp(first, mc.tileEnd) > 0 {
			continue
		}
		heap.Push(h, fragment.FragmentCellRange[T]{FragmentID: p.FragmentID, Range: fragment.CellRange[T]{A: first, B: first}})
		if second != nil && mc.sch.CellOrderCmp(second, mc.tileEnd) <= 0 {
			heap.Push(h, fragment.FragmentCellRange[T]{FragmentID: p.FragmentID, Range: fragment.CellRange[T]{A: second, B: p.Range.B}})
		}
	}

	return result, nil
}

func existsIfSparse[T schema.Signed](mc *mergeContext[T], p fragment.FragmentCellRange[T]) bool {
	if p.FragmentID == emptyFragmentID || mc.byID[p.FragmentID].Dense() {
		return true
	}
	return mc.byID[p.FragmentID].CoordsExist(p.Range.A)
}

// mergeUnaryOrDense handles case 1 of the sweep: P is dense or unary.
// It trims/discards older heap tops strictly inside P, then, if a
// newer top intersects P, splits P's tail off before emitting P's
// (possibly shortened) remainder.
func mergeUnaryOrDense[T schema.Signed](mc *mergeContext[T], h *rangeHeap[T], p fragment.FragmentCellRange[T]) (fragment.FragmentCellRange[T], error) {
	a, b := p.Range.A, p.Range.B

	for h.Len() > 0 {
		top, _ := h.peek()
		if top.FragmentID >= p.FragmentID {
			break
		}
		if mc.sch.CellOrderCmp(top.Range.A, a) < 0 || mc.sch.CellOrderCmp(top.Range.A, b) > 0 {
			break
		}
		t := heap.Pop(h).(fragment.FragmentCellRange[T])
		if mc.sch.CellOrderCmp(t.Range.B, b) > 0 {
			newA := nextCell(mc, b)
			heap.Push(h, fragment.FragmentCellRange[T]{FragmentID: t.FragmentID, Range: fragment.CellRange[T]{A: newA, B: t.Range.B}})
		}
	}

	var extra *fragment.FragmentCellRange[T]
	if h.Len() > 0 {
		top, _ := h.peek()
		if top.FragmentID > p.FragmentID && mc.sch.CellOrderCmp(top.Range.A, b) <= 0 {
			if mc.sch.CellOrderCmp(top.Range.B, b) < 0 {
				tailA := nextCell(mc, top.Range.B)
				extra = &fragment.FragmentCellRange[T]{FragmentID: p.FragmentID, Range: fragment.CellRange[T]{A: tailA, B: b}}
			}
			b = prevCell(mc, top.Range.A)
		}
	}
	if extra != nil {
		heap.Push(h, *extra)
	}
	return fragment.FragmentCellRange[T]{FragmentID: p.FragmentID, Range: fragment.CellRange[T]{A: a, B: b}}, nil
}

func nextCell[T schema.Signed](mc *mergeContext[T], c []T) []T {
	next := append([]T(nil), c...)
	mc.sch.GetNextCellCoords(mc.tileAbs, next)
	return next
}

func prevCell[T schema.Signed](mc *mergeContext[T], c []T) []T {
	prev := append([]T(nil), c...)
	mc.sch.GetPreviousCellCoords(mc.tileAbs, prev)
	return prev
}
