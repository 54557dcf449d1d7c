package util

import "errors"

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Crawl errors
	ErrExpectedDirectory = errors.New("expected directory but got file")
	ErrFilesystemLoop    = errors.New("filesystem loop detected")

	// Input errors
	ErrInvalidValueLine = errors.New("invalid arbitrary value line")
	ErrEmptyPath        = errors.New("empty path")

	// Output errors
	ErrNoTemplate = errors.New("no output template")
)
