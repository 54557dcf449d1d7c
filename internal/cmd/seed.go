package cmd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/martymac/fpart/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/taigrr/colorhash"
)

type seedOptions struct {
	output       string
	count        int
	dirs         int
	maxSize      config.Size
	emptyPercent int
	seed         uint64
}

type seedStats struct {
	files int
	empty int
	bytes uint64
	dirs  map[string]int
}

// NewSeedCmd creates and returns the seed subcommand.
// It generates a tree of files with random sizes to try partitioning on.
func NewSeedCmd() *cobra.Command {
	var (
		opts    seedOptions
		verbose bool
	)
	opts.maxSize = 64 << 10

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate test files with random sizes",
		Long: `Generate a tree of test files to try partitioning on.

Files are named after a UUID and spread over bucket directories by a hash of
their name. Sizes are uniformly random up to --max-size, and a share of the
files (--empty) is left empty. The same --seed always produces the same tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), 0)
			if verbose {
				log = newLogger(cmd.ErrOrStderr(), 1)
			}
			stats, err := runSeed(opts, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d files (%d empty, %d bytes) in %d directories\n",
				stats.files, stats.empty, stats.bytes, len(stats.dirs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVarP(&opts.count, "count", "c", 10000, "Number of files to generate")
	cmd.Flags().IntVarP(&opts.dirs, "dirs", "d", 100, "Number of bucket directories")
	cmd.Flags().VarP(&opts.maxSize, "max-size", "s", "Maximum file `size`")
	cmd.Flags().IntVarP(&opts.emptyPercent, "empty", "e", 10, "Percentage of empty files")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed, 0 picks one from the clock")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

func runSeed(opts seedOptions, log zerolog.Logger) (seedStats, error) {
	stats := seedStats{dirs: make(map[string]int)}
	if opts.count < 0 || opts.dirs < 1 || opts.emptyPercent < 0 || opts.emptyPercent > 100 {
		return stats, fmt.Errorf("invalid seed parameters: count=%d dirs=%d empty=%d%%",
			opts.count, opts.dirs, opts.emptyPercent)
	}
	if opts.seed == 0 {
		opts.seed = uint64(time.Now().UnixNano())
	}
	log.Info().Int("count", opts.count).Str("output", opts.output).Uint64("seed", opts.seed).
		Msg("generating test files")

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return stats, fmt.Errorf("failed to create output directory: %w", err)
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], opts.seed)
	source := rand.NewChaCha8(key)
	rng := rand.New(source)

	for stats.files < opts.count {
		id, err := uuid.NewRandomFromReader(source)
		if err != nil {
			return stats, fmt.Errorf("generating file name: %w", err)
		}
		name := id.String()
		bucket := int(uint64(colorhash.HashString(name)) % uint64(opts.dirs))
		dir := filepath.Join(opts.output, fmt.Sprintf("%03d", bucket))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("failed to create directory: %w", err)
		}

		var size uint64
		if rng.IntN(100) >= opts.emptyPercent && opts.maxSize > 0 {
			size = 1 + rng.Uint64N(opts.maxSize.Bytes())
		}
		content := bytes.Repeat([]byte(name+"\n"), int(size)/(len(name)+1)+1)[:size]
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			return stats, fmt.Errorf("failed to write file: %w", err)
		}

		if size == 0 {
			stats.empty++
		}
		stats.bytes += size
		stats.dirs[dir]++
		stats.files++
		if stats.files%1000 == 0 {
			log.Info().Msgf("created %d/%d files", stats.files, opts.count)
		}
	}

	log.Info().Int("files", stats.files).Int("directories", len(stats.dirs)).Msg("done")
	return stats, nil
}
