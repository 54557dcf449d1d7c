// Package cmd provides the command-line interface implementation for fpart.
//
// This package contains all the subcommand implementations for the fpart CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and entry point
//   - pack: Partitioning of crawled paths, input lists or arbitrary values
//   - count: Tree statistics
//   - seed: Test tree generation
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Options of the pack command can also come from a
// YAML file (see the config package); flags set on the command line win.
//
// The package leverages the partition, live and hook packages for the packing
// itself and the util package for crawling, input parsing and output lists.
package cmd
