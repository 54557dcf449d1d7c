package partition

// Partition is a group of entries, tracked by its aggregate counters only.
type Partition struct {
	Size     uint64 // preload plus the size of every assigned entry
	NumFiles uint64 // number of assigned entries
}

// Registry is the ordered list of partitions of a run.
type Registry struct {
	parts    []Partition
	preload  uint64
	overflow bool
}

// NewRegistry returns an empty registry whose partitions will start at
// preload bytes.
func NewRegistry(preload uint64) *Registry {
	return &Registry{preload: preload}
}

// NewFixedRegistry returns a registry holding n preloaded partitions.
func NewFixedRegistry(n int, preload uint64) *Registry {
	r := NewRegistry(preload)
	r.Add(n)
	return r
}

// Add appends n empty partitions and returns the index of the first one.
func (r *Registry) Add(n int) int {
	first := len(r.parts)
	for range n {
		r.parts = append(r.parts, Partition{Size: r.preload})
	}
	return first
}

// addOverflow appends the reserved partition for entries that cannot fit a
// size-capped partition. It must be the first partition created.
func (r *Registry) addOverflow() int {
	r.overflow = true
	return r.Add(1)
}

// Len returns the number of partitions.
func (r *Registry) Len() int {
	return len(r.parts)
}

// Preload returns the size every partition started at.
func (r *Registry) Preload() uint64 {
	return r.preload
}

// HasOverflow reports whether partition 0 is the reserved overflow partition.
func (r *Registry) HasOverflow() bool {
	return r.overflow
}

// At returns the partition at index i.
func (r *Registry) At(i int) (*Partition, error) {
	if i < 0 || i >= len(r.parts) {
		return nil, ErrPartitionNotFound
	}
	return &r.parts[i], nil
}

// Smallest returns the index of the least loaded partition. When several
// partitions share the smallest size the lowest index wins. It returns -1 on
// an empty registry.
func (r *Registry) Smallest() int {
	if len(r.parts) == 0 {
		return -1
	}
	smallest := 0
	for i := 1; i < len(r.parts); i++ {
		if r.parts[i].Size < r.parts[smallest].Size {
			smallest = i
		}
	}
	return smallest
}

// Label returns the number shown to users for partition index i.
// Partitions are numbered from 1, unless partition 0 is the overflow
// partition, in which case indexes are shown as-is.
func (r *Registry) Label(i int) int {
	return Label(i, r.overflow)
}

// Label maps a partition index to its display number.
func Label(i int, overflow bool) int {
	if overflow {
		return i
	}
	return i + 1
}

// Iterate yields every partition index with a copy of its counters.
func (r *Registry) Iterate(yield func(int, Partition) bool) {
	for i, p := range r.parts {
		if !yield(i, p) {
			return
		}
	}
}

// TotalSize returns the sum of every partition size, preloads included.
func (r *Registry) TotalSize() uint64 {
	var total uint64
	for _, p := range r.parts {
		total += p.Size
	}
	return total
}

// assign loads partition i with e and records the assignment on e.
func (r *Registry) assign(i int, e *Entry) error {
	p, err := r.At(i)
	if err != nil {
		return err
	}
	e.Partition = i
	p.Size += e.Size
	p.NumFiles++
	return nil
}
