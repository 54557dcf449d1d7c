package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/martymac/fpart/util"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zerolog.Level
	}{
		{0, zerolog.WarnLevel},
		{1, zerolog.InfoLevel},
		{2, zerolog.DebugLevel},
		{3, zerolog.TraceLevel},
		{7, zerolog.TraceLevel},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.verbosity), func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.verbosity)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}

	var buf bytes.Buffer
	log := newLogger(&buf, 0)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestCount(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]int{"a": 10, "sub/b": 5, "sub/deep/c": 0})

	stdout, _, err := execute(t, "", "count", dir)
	require.NoError(t, err)
	assert.Equal(t, "Total files: 3\nTotal directories: 3\nTotal size: 15 bytes\n", stdout)

	_, _, err = execute(t, "", "count", filepath.Join(dir, "a"))
	require.ErrorIs(t, err, util.ErrExpectedDirectory)
}

func TestSeed(t *testing.T) {
	opts := seedOptions{count: 60, dirs: 4, maxSize: 300, emptyPercent: 25, seed: 42}

	first := t.TempDir()
	opts.output = first
	stats, err := runSeed(opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 60, stats.files)
	assert.LessOrEqual(t, len(stats.dirs), 4)
	assert.Positive(t, stats.empty)

	u, err := util.NewCrawler(util.CrawlOptions{DirDepth: util.NoDirDepth}).Usage(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), u.Files)
	assert.Equal(t, stats.bytes, u.Size)

	second := t.TempDir()
	opts.output = second
	again, err := runSeed(opts, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, stats.bytes, again.bytes)
	assert.Equal(t, listTree(t, first), listTree(t, second), "same seed, same tree")
}

func TestSeed_InvalidParameters(t *testing.T) {
	_, err := runSeed(seedOptions{output: t.TempDir(), count: 1, dirs: 0}, zerolog.Nop())
	require.Error(t, err)
	_, err = runSeed(seedOptions{output: t.TempDir(), count: 1, dirs: 1, emptyPercent: 101}, zerolog.Nop())
	require.Error(t, err)
}

func TestSeed_Command(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := execute(t, "", "seed", "-o", dir, "-c", "5", "-d", "1", "-s", "1k", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created 5 files")

	_, _, err = execute(t, "", "seed")
	require.Error(t, err, "output is required")
}

// listTree returns the relative path and size of every file below root.
func listTree(t *testing.T, root string) map[string]int64 {
	t.Helper()
	files := make(map[string]int64)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files[rel] = info.Size()
		}
		return nil
	})
	require.NoError(t, err)
	return files
}
