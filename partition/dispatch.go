package partition

import (
	"container/heap"
	"fmt"
)

// heapThreshold is the partition count above which DispatchBySize keeps its
// candidates in a heap instead of scanning the registry for every entry.
const heapThreshold = 64

// DispatchBySize assigns each entry of sorted, which must be ordered from
// biggest to smallest, to the currently least loaded partition of r. Ties go
// to the lowest partition index. The registry must already hold the wanted
// number of partitions.
func DispatchBySize(sorted []*Entry, r *Registry) error {
	if r.Len() == 0 {
		return ErrNoPartitions
	}
	if r.Len() > heapThreshold {
		return dispatchWithHeap(sorted, r)
	}
	for _, e := range sorted {
		i := r.Smallest()
		if err := r.assign(i, e); err != nil {
			return fmt.Errorf("dispatching %s: %w", e.Path, err)
		}
	}
	return nil
}

// partitionHeap orders partition indexes by (size, index).
type partitionHeap struct {
	r   *Registry
	idx []int
}

func (h partitionHeap) Len() int { return len(h.idx) }

func (h partitionHeap) Less(a, b int) bool {
	pa, pb := h.r.parts[h.idx[a]], h.r.parts[h.idx[b]]
	if pa.Size != pb.Size {
		return pa.Size < pb.Size
	}
	return h.idx[a] < h.idx[b]
}

func (h partitionHeap) Swap(a, b int) { h.idx[a], h.idx[b] = h.idx[b], h.idx[a] }

func (h *partitionHeap) Push(x any) { h.idx = append(h.idx, x.(int)) }

func (h *partitionHeap) Pop() any {
	last := h.idx[len(h.idx)-1]
	h.idx = h.idx[:len(h.idx)-1]
	return last
}

func dispatchWithHeap(sorted []*Entry, r *Registry) error {
	h := &partitionHeap{r: r, idx: make([]int, r.Len())}
	for i := range h.idx {
		h.idx[i] = i
	}
	heap.Init(h)
	for _, e := range sorted {
		i := h.idx[0]
		if err := r.assign(i, e); err != nil {
			return fmt.Errorf("dispatching %s: %w", e.Path, err)
		}
		heap.Fix(h, 0)
	}
	return nil
}
