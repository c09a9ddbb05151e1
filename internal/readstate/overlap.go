package readstate

import "github.com/ndstore/arrayread/internal/schema"

// OverlapKind classifies a tile's intersection with the query range.
type OverlapKind int

const (
	Full OverlapKind = iota
	PartialContig
	PartialNonContig
)

func (k OverlapKind) String() string {
	switch k {
	case Full:
		return "FULL"
	case PartialContig:
		return "PARTIAL_CONTIG"
	default:
		return "PARTIAL_NON_CONTIG"
	}
}

// Overlap is the query range ∩ current tile, in both tile-relative
// and absolute (global) coordinates.
type Overlap[T schema.Signed] struct {
	RangeInTile [][2]T // relative to the tile's own origin
	Abs         [][2]T // absolute, global coordinates
	Kind        OverlapKind
}

// ComputeOverlap intersects the query range with the tile at
// tileCoords, returning (nil, false) if they don't overlap (should not
// happen for a tile TileCursor produced, but kept total for safety).
func ComputeOverlap[T schema.Signed](sch *schema.Schema[T], tileCoords []T, queryRange [][2]T) (*Overlap[T], bool) {
	tileAbs := sch.TileRectAbs(tileCoords)
	abs, ok := schema.IntersectRect(tileAbs, queryRange)
	if !ok {
		return nil, false
	}
	rel := make([][2]T, sch.Dims)
	for i := 0; i < sch.Dims; i++ {
		rel[i] = [2]T{abs[i][0] - tileAbs[i][0], abs[i][1] - tileAbs[i][0]}
	}
	return &Overlap[T]{RangeInTile: rel, Abs: abs, Kind: classifyOverlap(sch, rel)}, true
}

func classifyOverlap[T schema.Signed](sch *schema.Schema[T], rel [][2]T) OverlapKind {
	full := true
	for i := 0; i < sch.Dims; i++ {
		if rel[i][0] != 0 || rel[i][1] != sch.TileExtent[i]-1 {
			full = false
			break
		}
	}
	if full {
		return Full
	}
	skip := 0
	if sch.Order == schema.ColumnMajor {
		skip = sch.Dims - 1
	}
	contig := true
	for i := 0; i < sch.Dims; i++ {
		if i == skip {
			continue
		}
		if rel[i][0] != 0 || rel[i][1] != sch.TileExtent[i]-1 {
			contig = false
			break
		}
	}
	if contig {
		return PartialContig
	}
	return PartialNonContig
}
