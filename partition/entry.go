package partition

import (
	"cmp"
	"slices"
)

// Unassigned is the partition index of an entry that has not been dispatched yet.
const Unassigned = -1

// Entry is a crawled file or directory (or an arbitrary input value).
type Entry struct {
	Path      string // path as it will be written out
	Size      uint64 // adjusted size in bytes
	Partition int    // assigned partition index, Unassigned until dispatched
	Errno     int    // traversal error seen for this entry, 0 if none
}

// EntryStore owns every entry of a run, in insertion order.
// Entries are addressed by their position, which never changes.
type EntryStore struct {
	entries   []Entry
	totalSize uint64
}

// NewEntryStore returns an empty store with room for sizeHint entries.
func NewEntryStore(sizeHint int) *EntryStore {
	return &EntryStore{entries: make([]Entry, 0, max(sizeHint, 0))}
}

// Add appends an entry and returns its position.
func (s *EntryStore) Add(path string, size uint64, errno int) int {
	s.entries = append(s.entries, Entry{
		Path:      path,
		Size:      size,
		Partition: Unassigned,
		Errno:     errno,
	})
	s.totalSize += size
	return len(s.entries) - 1
}

// Len returns the number of entries.
func (s *EntryStore) Len() int {
	return len(s.entries)
}

// TotalSize returns the sum of all entry sizes.
func (s *EntryStore) TotalSize() uint64 {
	return s.totalSize
}

// At returns the entry at position i, or nil when i is out of range.
func (s *EntryStore) At(i int) *Entry {
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return &s.entries[i]
}

// Iterate yields entries in insertion order. The yielded pointers stay valid
// until the next Add.
func (s *EntryStore) Iterate(yield func(*Entry) bool) {
	for i := range s.entries {
		if !yield(&s.entries[i]) {
			return
		}
	}
}

// SortedBySize returns pointers to every entry, biggest first.
// Entries of equal size are left in no particular order.
func (s *EntryStore) SortedBySize() []*Entry {
	sorted := make([]*Entry, len(s.entries))
	for i := range s.entries {
		sorted[i] = &s.entries[i]
	}
	slices.SortFunc(sorted, func(a, b *Entry) int {
		return cmp.Compare(b.Size, a.Size)
	})
	return sorted
}
