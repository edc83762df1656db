package vectorindex

import (
	"container/heap"
	"sort"
)

// neighborHeap is a bounded max-heap of Neighbor keyed by Distance: the root
// (index 0) is always the current farthest candidate, so a full heap can be
// tested against a new candidate in O(log k) and the heap never grows past
// its capacity. Used by every index's kNN search to maintain the "k best so
// far" set during a scan or tree descent (spec §4.2, §4.3).
//
// No ecosystem package in the retrieval pack offers a generic bounded
// priority queue; container/heap plus a small sort.Interface implementation
// is the idiomatic Go way to do this (see DESIGN.md).
type neighborHeap struct {
	items []Neighbor
	k     int
}

func newNeighborHeap(k int) *neighborHeap {
	return &neighborHeap{items: make([]Neighbor, 0, k), k: k}
}

func (h *neighborHeap) Len() int            { return len(h.items) }
func (h *neighborHeap) Less(i, j int) bool  { return h.items[i].Distance > h.items[j].Distance }
func (h *neighborHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *neighborHeap) Push(x interface{})  { h.items = append(h.items, x.(Neighbor)) }
func (h *neighborHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// full reports whether the heap already holds k candidates.
func (h *neighborHeap) full() bool { return len(h.items) >= h.k }

// farthest returns the current farthest candidate's distance. Callers must
// only call this when full() is true.
func (h *neighborHeap) farthest() float32 { return h.items[0].Distance }

// offer considers a new candidate: if the heap has room it is pushed; if the
// heap is full and the candidate is closer than the current farthest, it
// replaces it; otherwise it is discarded.
func (h *neighborHeap) offer(n Neighbor) {
	if h.k <= 0 {
		return
	}
	if len(h.items) < h.k {
		heap.Push(h, n)
		return
	}
	if n.Distance < h.items[0].Distance {
		h.items[0] = n
		heap.Fix(h, 0)
	}
}

// sorted drains the heap into an ascending-distance slice. Ties are broken
// by id so the order is deterministic (spec §4.1: "ties broken by arbitrary
// but deterministic order").
func (h *neighborHeap) sorted() []Neighbor {
	out := make([]Neighbor, len(h.items))
	copy(out, h.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
