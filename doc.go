// Package main provides the fpart command-line interface.
//
// fpart sorts files and packs them into partitions, either a fixed number of
// partitions balanced by size or as many partitions as needed to honour a
// file count and/or size limit. Partitions are meant to feed parallel copy or
// archive jobs.
//
// The main binary supports multiple subcommands:
//   - pack: Crawl paths and pack them into partitions, optionally in live mode with hooks
//   - count: Count files, directories and bytes in a tree
//   - seed: Generate a tree of test files
package main
