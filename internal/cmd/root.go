package cmd

import (
	"github.com/martymac/fpart/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root cobra command for the fpart CLI.
// It sets up all subcommands, command groups, and basic configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fpart",
		Short: "fpart - Sort files and pack them into partitions",
		Long: `fpart sorts files and packs them into partitions, balanced by size or
bounded by a number of files and/or bytes.

Partitions are meant to be handed to parallel workers such as rsync, tar or
cpio. In live mode, partitions are produced while the file system is being
crawled and hooks run each time one of them is complete.

Use subcommands to perform different operations:
  - pack: Crawl paths and pack them into partitions
  - count: Count files, directories and bytes in a tree
  - seed: Generate a tree of test files`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	groupPartitioning := "partitioning"
	groupUtilities := "utilities"

	// Add command groups for better organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupPartitioning,
		Title: "Partitioning",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	packCmd := NewPackCmd()
	countCmd := NewCountCmd()
	seedCmd := NewSeedCmd()

	packCmd.GroupID = groupPartitioning
	countCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	// Add subcommands
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(seedCmd)

	return rootCmd
}
