package readstate

import (
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// streamAttribute is AttributeStreamer (spec §4.G): it resumes any
// partially-copied plan for attr, pulls fresh tile plans from the
// shared pipeline as needed, and copies until either the buffer
// overflows or the tile stream is exhausted.
func (rs *ReadState[T]) streamAttribute(attr int, buf []byte) (int, bool, error) {
	offset := 0
	for {
		if !rs.tileDone[attr] {
			idx := rs.planPos[attr]
			plan := rs.plans[idx]
			complete, err := rs.copyPlan(attr, plan, buf, &offset)
			if err != nil {
				return 0, false, err
			}
			if !complete {
				return offset, true, nil
			}
			rs.planPos[attr] = idx + 1
			rs.tileDone[attr] = true
			for _, s := range plan.onTileSlots {
				s.frg.TileDone(attr)
			}
			continue
		}

		if rs.planPos[attr] >= len(rs.plans) {
			more, err := rs.ensureNextPlan()
			if err != nil {
				return offset, false, err
			}
			if !more {
				return offset, false, nil
			}
			rs.tileDone[attr] = false
			continue
		}

		rs.tileDone[attr] = false
	}
}

// copyPlan copies plan.ranges into buf starting at *offset, resuming
// from attr's remembered rangeIdx/resumeP0 if this plan was left
// mid-copy by a prior overflow. Returns false (without advancing past
// the overflowing range) the moment the buffer fills.
func (rs *ReadState[T]) copyPlan(attr int, plan *tilePlan[T], buf []byte, offset *int) (bool, error) {
	cellSize := rs.sch.Attributes[attr].CellSize

	for ri := rs.rangeIdx[attr]; ri < len(plan.ranges); ri++ {
		r := plan.ranges[ri]
		p0 := r.Range.P0
		if v, ok := rs.resumeP0[attr]; ok {
			p0 = v
			delete(rs.resumeP0, attr)
		}

		before := *offset
		var overflowed bool
		var err error
		if r.FragmentID == emptyFragmentID {
			overflowed = copyFill(rs.sch, attr, buf, offset, fragment.CellPosRange{P0: p0, P1: r.Range.P1})
		} else {
			frg := rs.byID[r.FragmentID]
			copyErr := frg.CopyCellRange(attr, buf, offset, fragment.CellPosRange{P0: p0, P1: r.Range.P1}, plan.tileCoords)
			if copyErr != nil {
				err = &FragmentReadError{Op: "copy_cell_range", Err: copyErr}
			}
			overflowed = frg.Overflow(attr)
		}
		if err != nil {
			return false, err
		}

		if overflowed {
			written := int64(*offset-before) / int64(cellSize)
			lastP0 := p0 + written
			rs.rangeIdx[attr] = ri
			if lastP0 <= r.Range.P1 {
				rs.resumeP0[attr] = lastP0
			}
			return false, nil
		}
	}
	rs.rangeIdx[attr] = 0
	return true, nil
}

// copyFill materializes attr's fill value across a -1 (empty
// fragment) position range, honoring buffer capacity the same way a
// real Fragment.CopyCellRange would.
func copyFill[T schema.Signed](sch *schema.Schema[T], attr int, buf []byte, offset *int, r fragment.CellPosRange) bool {
	cellSize := sch.Attributes[attr].CellSize
	fill := sch.Attributes[attr].FillValue
	n := int(r.P1 - r.P0 + 1)
	for i := 0; i < n; i++ {
		if *offset+cellSize > len(buf) {
			return true
		}
		copy(buf[*offset:*offset+cellSize], fill)
		*offset += cellSize
	}
	return false
}

// gcPlans implements (I4): once every attribute that has ever been
// requested has advanced past a prefix of plans, that prefix is
// dropped and every planPos shifted down accordingly.
func (rs *ReadState[T]) gcPlans(_ map[int][]byte) {
	if len(rs.planPos) == 0 {
		return
	}
	minPos := -1
	for _, p := range rs.planPos {
		if minPos == -1 || p < minPos {
			minPos = p
		}
	}
	if minPos <= 0 {
		return
	}
	rs.plans = rs.plans[minPos:]
	for attr := range rs.planPos {
		rs.planPos[attr] -= minPos
	}
}
