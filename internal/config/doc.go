// Package config holds the options of a partitioning run.
//
// Options come from built-in defaults, an optional YAML file and finally the
// command line, in that order. Validate enforces the consistency rules
// between options before any entry is read.
package config
