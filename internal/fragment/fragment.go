// Package fragment defines the Fragment collaborator the read-state
// merge engine consumes (spec §3), plus two concrete, in-process
// implementations — DenseFragment and SparseFragment — standing in
// for the real on-disk tile storage, which is out of scope for this
// module.
package fragment

import (
	"errors"
	"fmt"

	"github.com/ndstore/arrayread/internal/schema"
)

// CellRange is an inclusive axis-aligned rectangle in global
// coordinate space, expressed by its two corners in cell order. Unary
// when A and B coincide.
type CellRange[T schema.Numeric] struct {
	A, B []T
}

// FragmentCellRange pairs a fragment id with a CellRange it
// contributes to the current tile. FragmentID == -1 denotes an
// empty-fragment (fill) range (spec §3).
type FragmentCellRange[T schema.Numeric] struct {
	FragmentID int32
	Range      CellRange[T]
}

// CellPosRange is an inclusive pair of linearized cell positions
// within one tile.
type CellPosRange struct {
	P0, P1 int64
}

// FragmentCellPosRange pairs a fragment id with a CellPosRange.
type FragmentCellPosRange struct {
	FragmentID int32
	Range      CellPosRange
}

// ErrFragmentRead is wrapped by any Fragment-layer failure, matching
// spec §7's FragmentReadError taxonomy entry.
var ErrFragmentRead = errors.New("fragment read error")

// Fragment is the read-only collaborator each immutable snapshot of
// writes exposes to the merge engine. Higher fragment id (the index
// the caller assigns; not stored on the Fragment itself) means a more
// recent fragment.
type Fragment[T schema.Numeric] interface {
	// Dense reports whether this fragment is densely stored.
	Dense() bool

	// ResetOverflow clears any overflow flag left over from a prior read.
	ResetOverflow()

	// Overflow reports whether the last CopyCellRange for attr hit
	// buffer capacity.
	Overflow(attr int) bool

	// GetNextOverlappingTileMult advances this fragment's internal
	// tile cursor to the next tile, within queryTileDomain (the
	// query range projected to tile coordinates), that the fragment
	// has data for.
	GetNextOverlappingTileMult(queryTileDomain [][2]T)

	// GetGlobalTileCoords returns the tile coordinates the fragment's
	// cursor currently sits on, or nil if the fragment is exhausted.
	GetGlobalTileCoords() []T

	// MaxOverlap reports whether this fragment fully covers
	// rangeInTile (tile-origin-relative, inclusive) of the tile the
	// fragment's cursor currently sits on.
	MaxOverlap(rangeInTile [][2]T) bool

	// CoordsExist reports whether a sparse fragment actually stores a
	// cell at the given global coordinate.
	CoordsExist(p []T) bool

	// GetFirstTwoCoords returns the first two physically stored
	// coordinates at or after start, for sparse unary expansion.
	GetFirstTwoCoords(start []T) (first, second []T, err error)

	// ComputeFragmentCellRanges appends this fragment's contribution
	// to the current tile, restricted to overlap (the absolute,
	// global-coordinate rectangle of query range ∩ current tile),
	// into out. Dense fragments yield dense rectangular ranges;
	// sparse fragments yield one unary range per physically stored
	// cell inside overlap.
	ComputeFragmentCellRanges(fragmentID int32, overlap [][2]T, out *[]FragmentCellRange[T]) error

	// GetCellPosRangesSparse converts one sparse cell range (lying
	// within tileDomain, the current tile's absolute coordinate
	// rectangle) into one or more position ranges in the fragment's
	// own storage order (for SparseFragment: indices into its sorted
	// coordinate list), not tile-local cell positions.
	GetCellPosRangesSparse(tileDomain [][2]T, r CellRange[T]) ([]CellPosRange, error)

	// CopyCellRange copies cells [p0, p1] (for a dense fragment,
	// tile-local positions within the tile at tileCoords; for a sparse
	// fragment, the storage positions GetCellPosRangesSparse returned)
	// of attr into buf starting at *offset,
	// advancing *offset as it goes. Returns without error if the
	// fragment sets its own Overflow(attr) flag on running out of
	// buffer room. tileCoords is passed explicitly rather than read
	// off the fragment's own cursor: by the time a caller's buffered
	// copy of one tile's plan actually runs, the fragment's cursor may
	// already have advanced past that tile (ReadState builds plans
	// for the shared tile pipeline ahead of any one attribute's copy
	// pass).
	CopyCellRange(attr int, buf []byte, offset *int, r CellPosRange, tileCoords []T) error

	// TileDone notifies the fragment that attr's data for the
	// fragment's current tile has been fully consumed, so it may
	// release tile-level state.
	TileDone(attr int)
}

func readErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFragmentRead, fmt.Sprintf(format, args...))
}
