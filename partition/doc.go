// Package partition implements the fpart dispatch engine.
//
// It holds the two collections a run works on and the algorithms that fill
// them:
//
// Collections:
//   - EntryStore: ordered (path, size) records, each carrying the index of
//     the partition it has been assigned to
//   - Registry: ordered partitions with their accumulated size and file count
//
// Dispatchers:
//   - DispatchBySize: greedy "largest first into the least loaded partition"
//     over a fixed number of partitions
//   - RebalanceEmpty: spreads zero-size entries, which the greedy pass cannot
//     tell apart, so that file counts stay level
//   - DispatchByLimits: creates partitions on demand while honouring a
//     maximum file count and/or size per partition
//
// Entry sizes are expected to be adjusted with AdjustSize (per-file overload
// then rounding) before they enter the store. The streaming variant used while
// crawling lives in package live.
//
// Nothing in this package is safe for concurrent use; a run owns its store and
// registry and mutates them from a single goroutine.
package partition
