package cmd

import (
	"fmt"

	"github.com/martymac/fpart/util"
	"github.com/spf13/cobra"
)

// NewCountCmd creates and returns the count subcommand, which reports how
// many entries and bytes a tree holds before packing it.
func NewCountCmd() *cobra.Command {
	var (
		path      string
		verbosity int
		crawl     util.CrawlOptions
	)

	cmd := &cobra.Command{
		Use:   "count [PATH]",
		Short: "Count files, directories and bytes in a directory tree",
		Long: `Count the files, directories and bytes of a directory tree.

Symbolic links and file system boundaries are handled the same way as by
the pack command, so the totals match what pack would see.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				path = args[0]
			}
			crawl.DirDepth = util.NoDirDepth
			crawler := util.NewCrawler(crawl)
			crawler.SetLogger(newLogger(cmd.ErrOrStderr(), verbosity))

			u, err := crawler.Usage(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("counting %s: %w", path, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total files: %d\n", u.Files)
			fmt.Fprintf(out, "Total directories: %d\n", u.Dirs)
			fmt.Fprintf(out, "Total size: %d bytes\n", u.Size)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "./", "Path to count files in")
	cmd.Flags().BoolVarP(&crawl.FollowSymlinks, "follow-symlinks", "l", false, "Follow symbolic links")
	cmd.Flags().BoolVarP(&crawl.OneFileSystem, "one-file-system", "b", false, "Do not cross file system boundaries")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity, repeatable")

	return cmd
}
