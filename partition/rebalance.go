package partition

import "fmt"

// RebalanceEmpty moves zero-size entries so that file counts get closer to
// the mean number of entries per partition.
//
// Sorting by size cannot tell empty entries apart, so DispatchBySize tends to
// pile them all onto a single partition. Each empty entry, in insertion order,
// goes to the first partition holding fewer than len(entries)/num_parts files,
// if any; otherwise it stays where it is. Sizes are left untouched.
// It returns the number of moved entries.
func RebalanceEmpty(entries *EntryStore, r *Registry) (int, error) {
	if r.Len() == 0 {
		return 0, ErrNoPartitions
	}
	meanFiles := uint64(entries.Len()) / uint64(r.Len())

	moved := 0
	for i := range entries.entries {
		e := &entries.entries[i]
		if e.Size != 0 {
			continue
		}
		for j := range r.parts {
			if j == e.Partition || r.parts[j].NumFiles >= meanFiles {
				continue
			}
			prev, err := r.At(e.Partition)
			if err != nil {
				return moved, fmt.Errorf("rebalancing %s: %w", e.Path, err)
			}
			prev.NumFiles--
			r.parts[j].NumFiles++
			e.Partition = j
			moved++
			break
		}
	}
	return moved, nil
}
