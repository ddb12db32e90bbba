// Package hnsw provides a Hierarchical Navigable Small World index for
// approximate nearest neighbor search over point clouds.
//
// This file defines the min-heap and max-heap used during graph traversal.
// Both are built on Go's standard container/heap package and are
// specialized for managing search candidates.
package hnsw

import (
	"container/heap"

	"github.com/sanonone/gspkit/pkg/core/types"
)

// minHeap is a min-heap of candidates ordered by distance: the nearest
// candidate is always at the top. It holds the frontier of nodes still to
// be expanded, so the most promising one is explored next.
type minHeap []types.Candidate

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].Distance < h[j].Distance }
func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any) { *h = append(*h, x.(types.Candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxHeap is a max-heap of candidates ordered by distance: the farthest
// candidate is always at the top. It maintains the best results found so
// far; the root is the worst of the best, cheap to evict when a closer
// neighbor turns up.
type maxHeap []types.Candidate

func (h maxHeap) Len() int { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h maxHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any) { *h = append(*h, x.(types.Candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// drainAscending empties a max-heap into a slice sorted by increasing
// distance.
func drainAscending(h *maxHeap) []types.Candidate {
	out := make([]types.Candidate, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(types.Candidate)
	}
	return out
}
