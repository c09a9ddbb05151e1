package readstate

import (
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// rangeToPositions converts one merged FragmentCellRange into one or
// more (fragment id, position range) pairs (spec §4.F). Dense or fill
// (-1) ranges normalize against the tile's origin and map through
// GetCellPos directly, always yielding exactly one in-tile position
// range. Sparse ranges delegate to the fragment's own
// GetCellPosRangesSparse, which may fan out due to storage order and
// returns positions in that fragment's storage order, not in-tile
// positions.
func rangeToPositions[T schema.Signed](sch *schema.Schema[T], tileCoords []T, byID map[int32]fragment.Fragment[T], r fragment.FragmentCellRange[T]) ([]fragment.FragmentCellPosRange, error) {
	if r.FragmentID == emptyFragmentID || byID[r.FragmentID].Dense() {
		origin := sch.TileOrigin(tileCoords)
		a := normalize(r.Range.A, origin)
		b := normalize(r.Range.B, origin)
		return []fragment.FragmentCellPosRange{{
			FragmentID: r.FragmentID,
			Range:      fragment.CellPosRange{P0: sch.GetCellPos(a), P1: sch.GetCellPos(b)},
		}}, nil
	}

	tileAbs := sch.TileRectAbs(tileCoords)
	posRanges, err := byID[r.FragmentID].GetCellPosRangesSparse(tileAbs, r.Range)
	if err != nil {
		return nil, err
	}
	out := make([]fragment.FragmentCellPosRange, len(posRanges))
	for i, pr := range posRanges {
		out[i] = fragment.FragmentCellPosRange{FragmentID: r.FragmentID, Range: pr}
	}
	return out, nil
}

func normalize[T schema.Signed](p, origin []T) []T {
	out := make([]T, len(p))
	for i := range p {
		out[i] = p[i] - origin[i]
	}
	return out
}
