package readstate

import (
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// emptyFragmentID marks a cell range contributed by no live fragment;
// copy falls back to the attribute's fill value.
const emptyFragmentID int32 = -1

// fragmentSlot pairs a Fragment with the id (its index among all
// fragments of the array, oldest first) the merge engine addresses it
// by.
type fragmentSlot[T schema.Signed] struct {
	id  int32
	frg fragment.Fragment[T]
}

// collectTileRanges gathers the unsorted FragmentCellRange list
// contributing to the current tile across every fragment positioned
// on it (spec §4.D): the newest fragment whose data fully covers the
// tile-relative overlap range — the max-overlap fragment — supplies a
// backbone decomposition of the whole intersection (or, if none
// qualifies, a -1 fill backbone); every fragment newer than the
// backbone's id that is also positioned on this tile delegates to its
// own ComputeFragmentCellRanges. onTile is the caller's already
// tile-filtered fragment slot list (every slot's cursor sits on
// tileCoords); trusted as-is rather than re-filtered.
func collectTileRanges[T schema.Signed](sch *schema.Schema[T], tileCoords []T, overlap *Overlap[T], onTile []fragmentSlot[T]) ([]fragment.FragmentCellRange[T], error) {
	backboneID := emptyFragmentID
	for i := len(onTile) - 1; i >= 0; i-- {
		if onTile[i].frg.MaxOverlap(overlap.RangeInTile) {
			backboneID = onTile[i].id
			break
		}
	}

	var out []fragment.FragmentCellRange[T]
	for _, slab := range sch.DecomposeSlabs(overlap.Abs) {
		out = append(out, fragment.FragmentCellRange[T]{
			FragmentID: backboneID,
			Range:      fragment.CellRange[T]{A: schema.LowCorner(slab), B: schema.HighCorner(slab)},
		})
	}

	for _, s := range onTile {
		if s.id <= backboneID {
			continue
		}
		if err := s.frg.ComputeFragmentCellRanges(s.id, overlap.Abs, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func coordsEqual[T schema.Signed](a, b []T) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
