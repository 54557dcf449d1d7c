package live

import "errors"

// Sentinel errors for package live. These errors can be checked with
// errors.Is() to handle specific failure cases.
var (
	// ErrSink reports a failure to open, write or close partition output.
	// It is always fatal to the run.
	ErrSink = errors.New("partition output failed")

	// ErrFinalized is returned when entries are fed after Finalize.
	ErrFinalized = errors.New("dispatcher already finalized")
)
