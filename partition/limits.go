package partition

import "fmt"

// Limits caps regular partitions in DispatchByLimits. A zero field means no
// cap on that dimension.
type Limits struct {
	MaxEntries uint64
	MaxSize    uint64
}

// accepts reports whether p can take one more entry of the given size.
func (l Limits) accepts(p Partition, size uint64) bool {
	if l.MaxEntries > 0 && p.NumFiles+1 > l.MaxEntries {
		return false
	}
	if l.MaxSize > 0 && overflows(p.Size, size, l.MaxSize) {
		return false
	}
	return true
}

// overflows reports whether base+size exceeds limit, without wrapping.
func overflows(base, size, limit uint64) bool {
	return size > limit || base > limit-size
}

// DispatchByLimits assigns entries, in insertion order, to partitions created
// on the fly so that no regular partition holds more than l.MaxEntries files
// or l.MaxSize bytes. r must be empty.
//
// When l.MaxSize is set, partition 0 is reserved for entries that cannot fit
// an empty partition on their own; it is not capped.
//
// Every entry is placed in the first regular partition, scanning from the
// first one, that still accepts it; a new partition is chained when none
// does. Earlier partitions can therefore still receive later, smaller
// entries. It returns the number of partitions created, the overflow
// partition included.
func DispatchByLimits(entries *EntryStore, r *Registry, l Limits) (int, error) {
	if l.MaxEntries == 0 && l.MaxSize == 0 {
		return 0, ErrNoLimits
	}
	if r.Len() != 0 {
		return 0, ErrRegistryNotEmpty
	}

	overflow := Unassigned
	if l.MaxSize > 0 {
		overflow = r.addOverflow()
	}
	first := r.Add(1)

	for i := range entries.entries {
		e := &entries.entries[i]

		if overflow != Unassigned && overflows(r.preload, e.Size, l.MaxSize) {
			if err := r.assign(overflow, e); err != nil {
				return 0, fmt.Errorf("dispatching %s: %w", e.Path, err)
			}
			continue
		}

		current := first
		for !l.accepts(r.parts[current], e.Size) {
			current++
			if current == r.Len() {
				r.Add(1)
			}
		}
		if err := r.assign(current, e); err != nil {
			return 0, fmt.Errorf("dispatching %s: %w", e.Path, err)
		}
	}
	return r.Len(), nil
}
