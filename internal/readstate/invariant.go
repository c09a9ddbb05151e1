package readstate

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// checkPartition verifies (I2): a tile's converted position ranges
// are strictly ordered by their first endpoint and pairwise
// non-overlapping. Ranges arrive already ordered by PerTileMerge; this
// re-derives the guarantee independently with a bitset rather than
// trusting the ordering invariant blindly, so a regression in the
// merge or position-conversion logic fails loudly in tests instead of
// silently corrupting output.
func checkPartition[T schema.Signed](sch *schema.Schema[T], ranges []fragment.FragmentCellPosRange) error {
	cellsPerTile := sch.CellsPerTile()
	seen := bitset.New(uint(cellsPerTile))

	var prevEnd int64 = -1
	for _, r := range ranges {
		if r.Range.P0 <= prevEnd {
			return &InvariantViolation{Msg: fmt.Sprintf(
				"plan range [%d,%d] is not strictly ordered after previous end %d",
				r.Range.P0, r.Range.P1, prevEnd)}
		}
		for p := r.Range.P0; p <= r.Range.P1; p++ {
			if p < 0 || p >= cellsPerTile {
				return &InvariantViolation{Msg: fmt.Sprintf("plan position %d outside tile bounds [0,%d)", p, cellsPerTile)}
			}
			if seen.Test(uint(p)) {
				return &InvariantViolation{Msg: fmt.Sprintf("plan position %d covered by more than one range", p)}
			}
			seen.Set(uint(p))
		}
		prevEnd = r.Range.P1
	}
	return nil
}
