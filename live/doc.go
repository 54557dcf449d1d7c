// Package live implements fpart's live mode: partitions are built while the
// tree is still being crawled.
//
// A Dispatcher receives entries one at a time and decides immediately where
// they go. It cannot sort nor look ahead, so partitions are closed as soon as
// a file-count or size limit is reached and are never reopened. Each
// partition is written to a Sink as it fills, and hooks run when a partition
// starts, when it closes and once the whole run is over.
//
// Sink failures abort the run. Hook failures do not: they are recorded and
// reported by HookFailed once Finalize has been called.
package live
