package readstate

import (
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
	"github.com/sirupsen/logrus"
)

// Reader is the type-erased surface callers doing runtime coordinate
// dispatch (spec §6: int32 or int64 at the read entry point) program
// against, since a *ReadState[int32] and a *ReadState[int64] cannot
// otherwise share a variable.
type Reader interface {
	Read(buffers map[int][]byte) (map[int]int, Status, error)
	Done() bool
}

// Status is the ternary result of a Read call.
type Status int

const (
	Ok Status = iota
	Overflow
	Error
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "OK"
	case Overflow:
		return "OVERFLOW"
	default:
		return "ERROR"
	}
}

// tilePlan is one entry of ReadState.plans: the merged,
// position-converted ranges for one tile, shared across every
// requested attribute, plus the bookkeeping AttributeStreamer needs to
// notify fragments once a tile is fully consumed.
type tilePlan[T schema.Signed] struct {
	tileCoords  []T
	ranges      []fragment.FragmentCellPosRange
	onTileSlots []fragmentSlot[T]
}

// ReadState is the per-query orchestrator: it holds cross-attribute
// plan state and drives TileCursor -> OverlapGeometry ->
// FragmentCellRangeSource -> PerTileMerge -> RangeToPosition,
// appending one tilePlan at a time as AttributeStreamer instances
// need more material to copy from (spec §4.H). One instance serves
// exactly one read query end-to-end; it is not reused across queries.
type ReadState[T schema.Signed] struct {
	sch        *schema.Schema[T]
	slots      []fragmentSlot[T]
	byID       map[int32]fragment.Fragment[T]
	queryRange [][2]T
	cursor     *TileCursor[T]

	plans    []*tilePlan[T]
	planPos  map[int]int
	tileDone map[int]bool
	overflow map[int]bool
	rangeIdx map[int]int
	resumeP0 map[int]int64
	done     bool

	log *logrus.Entry
}

// Construct initializes a ReadState over fragments (oldest first;
// index becomes fragment id) for queryRange. No I/O is performed.
func Construct[T schema.Signed](sch *schema.Schema[T], fragments []fragment.Fragment[T], queryRange [][2]T, log *logrus.Entry) (*ReadState[T], error) {
	if sch.Dims != len(queryRange) {
		return nil, &SchemaError{Msg: "query range dimensionality does not match schema"}
	}
	for _, r := range queryRange {
		if r[0] > r[1] {
			return nil, &SchemaError{Msg: "query range lo exceeds hi on a dimension"}
		}
	}
	slots := make([]fragmentSlot[T], len(fragments))
	byID := make(map[int32]fragment.Fragment[T], len(fragments))
	for i, f := range fragments {
		f.ResetOverflow()
		slots[i] = fragmentSlot[T]{id: int32(i), frg: f}
		byID[int32(i)] = f
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	return &ReadState[T]{
		sch:        sch,
		slots:      slots,
		byID:       byID,
		queryRange: queryRange,
		cursor:     NewTileCursor(sch, queryRange),
		planPos:    make(map[int]int),
		tileDone:   make(map[int]bool),
		overflow:   make(map[int]bool),
		rangeIdx:   make(map[int]int),
		resumeP0:   make(map[int]int64),
		log:        log.WithField("component", "readstate"),
	}, nil
}

// Read streams cells for the requested attributes (by schema
// attribute index) into buffers, one AttributeStreamer pass each,
// resuming exactly where a prior overflowing call left off. Returns
// the number of bytes written per attribute and the overall status:
// Overflow if any attribute's buffer filled, Ok if every attribute
// reached DONE, Error (with all produced-but-unconverted state
// discarded) on any fragment-layer failure. A request for a
// variable-length attribute returns Error with an
// UnsupportedOperationError before anything is copied. Every
// fragment's overflow flags are cleared on entry.
func (rs *ReadState[T]) Read(buffers map[int][]byte) (map[int]int, Status, error) {
	for attr := range buffers {
		if rs.sch.Attributes[attr].VarSize {
			return nil, Error, &UnsupportedOperationError{Op: "variable-length attribute read"}
		}
	}
	for _, s := range rs.slots {
		s.frg.ResetOverflow()
	}
	for attr := range buffers {
		if _, ok := rs.planPos[attr]; !ok {
			rs.planPos[attr] = 0
			rs.tileDone[attr] = true
		}
		rs.overflow[attr] = false
	}

	written := make(map[int]int, len(buffers))
	anyOverflow := false

	for attr, buf := range buffers {
		n, overflowed, err := rs.streamAttribute(attr, buf)
		if err != nil {
			rs.log.WithError(err).WithField("attr", attr).Error("read aborted")
			return nil, Error, err
		}
		written[attr] = n
		if overflowed {
			anyOverflow = true
		}
	}

	rs.gcPlans(buffers)

	if anyOverflow {
		return written, Overflow, nil
	}
	return written, Ok, nil
}

// Done reports whether every tile of the query range has been
// enumerated and merged (but not necessarily copied for every
// attribute — see streamAttribute).
func (rs *ReadState[T]) Done() bool { return rs.done }

// ensureNextPlan advances the shared tile pipeline by exactly one
// tile: B (TileCursor) -> C (OverlapGeometry) -> D
// (FragmentCellRangeSource) -> E (PerTileMerge) -> F
// (RangeToPosition), appending the resulting tilePlan. Returns false
// once the cursor is exhausted, with rs.done set.
func (rs *ReadState[T]) ensureNextPlan() (bool, error) {
	if rs.cursor.Exhausted() {
		rs.done = true
		return false, nil
	}
	tileCoords := rs.cursor.Coords()

	for _, s := range rs.slots {
		if s.frg.GetGlobalTileCoords() == nil {
			s.frg.GetNextOverlappingTileMult(rs.cursor.TileDomain())
		}
	}
	var onTile []fragmentSlot[T]
	for _, s := range rs.slots {
		if cur := s.frg.GetGlobalTileCoords(); cur != nil && coordsEqual(cur, tileCoords) {
			onTile = append(onTile, s)
		}
	}

	overlap, ok := ComputeOverlap(rs.sch, tileCoords, rs.queryRange)
	if !ok {
		return false, &InvariantViolation{Msg: "tile cursor produced a tile with no query-range overlap"}
	}

	raw, err := collectTileRanges(rs.sch, tileCoords, overlap, onTile)
	if err != nil {
		return false, &FragmentReadError{Op: "compute_fragment_cell_ranges", Err: err}
	}

	merged, err := PerTileMerge(rs.sch, tileCoords, onTile, raw)
	if err != nil {
		return false, &FragmentReadError{Op: "per_tile_merge", Err: err}
	}

	var ranges []fragment.FragmentCellPosRange
	for _, r := range merged {
		posRanges, err := rangeToPositions(rs.sch, tileCoords, rs.byID, r)
		if err != nil {
			return false, &FragmentReadError{Op: "range_to_position", Err: err}
		}
		ranges = append(ranges, posRanges...)
	}

	if err := checkPartition(rs.sch, ranges); err != nil {
		return false, err
	}

	rs.plans = append(rs.plans, &tilePlan[T]{tileCoords: tileCoords, ranges: ranges, onTileSlots: onTile})
	rs.log.WithField("tile", tileCoords).WithField("ranges", len(ranges)).Debug("tile plan appended")

	for _, s := range onTile {
		s.frg.GetNextOverlappingTileMult(rs.cursor.TileDomain())
	}
	rs.cursor.Advance()
	return true, nil
}
