// Package util provides the input and output plumbing around fpart's
// partitioning engine.
//
// Key Components:
//
// Crawling:
//   - Crawler walks file hierarchies and emits (path, size, errno) entries
//   - symlink following, single filesystem walks, include/exclude patterns
//   - directory entries: empty, unreadable, leaf or depth-limited directories
//   - TreeSize and Usage compute recursive directory sizes
//
// Input:
//   - ReadLines reads path lists from files or stdin
//   - ParseArbitrary reads "<size> <path>" lines for pre-computed values
//
// Output:
//   - WriteEntries prints the classic "partition<TAB>size<TAB>path" listing
//   - WritePartitionFiles writes one list file per partition
//   - LogPartitions logs per-partition summaries
//
// Traversal errors never abort a crawl: they are logged and attached to the
// entry they concern as an errno.
package util
