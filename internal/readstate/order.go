// Package readstate implements the dense multi-fragment read-path
// merge engine: per-tile enumeration, per-fragment range collection,
// precedence-correct merging, and resumable, overflow-safe
// per-attribute streaming.
package readstate

import (
	"github.com/ndstore/arrayread/internal/fragment"
	"github.com/ndstore/arrayread/internal/schema"
)

// rangeLess implements the strict weak ordering the per-tile merge
// heap pops under: earlier first-endpoint wins; ties are broken by
// higher fragment id popping first, which is what realizes
// most-recent-fragment-wins precedence purely through heap order.
func rangeLess[T schema.Signed](order schema.CellOrder, a, b fragment.FragmentCellRange[T]) bool {
	cmp := schema.CellOrderCmp(order, a.Range.A, b.Range.A)
	if cmp != 0 {
		return cmp < 0
	}
	return a.FragmentID > b.FragmentID
}

// rangeHeap is a container/heap.Interface over pending
// FragmentCellRange values for the tile currently being merged.
type rangeHeap[T schema.Signed] struct {
	items []fragment.FragmentCellRange[T]
	order schema.CellOrder
}

func (h *rangeHeap[T]) Len() int { return len(h.items) }

func (h *rangeHeap[T]) Less(i, j int) bool {
	return rangeLess(h.order, h.items[i], h.items[j])
}

func (h *rangeHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *rangeHeap[T]) Push(x any) {
	h.items = append(h.items, x.(fragment.FragmentCellRange[T]))
}

func (h *rangeHeap[T]) Pop() any {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[:n-1]
	return item
}

func (h *rangeHeap[T]) peek() (fragment.FragmentCellRange[T], bool) {
	if len(h.items) == 0 {
		var zero fragment.FragmentCellRange[T]
		return zero, false
	}
	return h.items[0], true
}
