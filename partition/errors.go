package partition

import "errors"

// Sentinel errors for package partition.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Registry errors
	ErrPartitionNotFound = errors.New("partition index out of range")
	ErrNoPartitions      = errors.New("no partitions to dispatch into")
	ErrRegistryNotEmpty  = errors.New("registry must be empty before limit dispatch")

	// Limit errors
	ErrNoLimits = errors.New("either a maximum file count or a maximum size is required")
)
