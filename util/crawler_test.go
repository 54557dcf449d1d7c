package util

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type emitted struct {
	path  string
	size  uint64
	errno int
}

// makeTree builds:
//
//	a.txt (10)  b.log (5)  empty/  sub/c.txt (3)  sub/deep/d.txt (7)
func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]int{
		"a.txt":          10,
		"b.log":          5,
		"sub/c.txt":      3,
		"sub/deep/d.txt": 7,
	}
	for name, size := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(strings.Repeat("x", size)), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))
	return root
}

func crawl(t *testing.T, opts CrawlOptions, root string) []emitted {
	t.Helper()
	var got []emitted
	err := NewCrawler(opts).Crawl(context.Background(), root, func(path string, size uint64, errno int) error {
		rel := strings.TrimPrefix(path, root+"/")
		if path == root || path == root+"/" {
			rel = "."
		}
		got = append(got, emitted{path: rel, size: size, errno: errno})
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestCrawler_Options(t *testing.T) {
	tests := []struct {
		name string
		opts CrawlOptions
		want []emitted
	}{
		{
			name: "files only",
			opts: CrawlOptions{DirDepth: NoDirDepth},
			want: []emitted{{"a.txt", 10, 0}, {"b.log", 5, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "empty directories",
			opts: CrawlOptions{DirDepth: NoDirDepth, DirsInclude: DirsEmpty},
			want: []emitted{{"a.txt", 10, 0}, {"b.log", 5, 0}, {"empty", 0, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "empty directories with slash",
			opts: CrawlOptions{DirDepth: NoDirDepth, DirsInclude: DirsEmpty, AddSlash: true},
			want: []emitted{{"a.txt", 10, 0}, {"b.log", 5, 0}, {"empty/", 0, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "all directories",
			opts: CrawlOptions{DirDepth: NoDirDepth, DirsInclude: DirsAll},
			want: []emitted{
				{"a.txt", 10, 0}, {"b.log", 5, 0}, {"empty", 0, 0}, {"sub/c.txt", 3, 0},
				{"sub/deep/d.txt", 7, 0}, {"sub/deep", 0, 0}, {"sub", 0, 0}, {".", 0, 0},
			},
		},
		{
			name: "directory depth",
			opts: CrawlOptions{DirDepth: 1},
			want: []emitted{{"a.txt", 10, 0}, {"b.log", 5, 0}, {"empty", 0, 0}, {"sub", 10, 0}},
		},
		{
			name: "leaf directories",
			opts: CrawlOptions{DirDepth: NoDirDepth, LeafDirs: true},
			want: []emitted{{"empty", 0, 0}, {"sub/deep", 7, 0}, {"sub/c.txt", 3, 0}, {"a.txt", 10, 0}, {"b.log", 5, 0}},
		},
		{
			name: "directories only",
			opts: CrawlOptions{DirDepth: NoDirDepth, DirsOnly: true},
			want: []emitted{{"empty", 0, 0}, {"sub/deep", 7, 0}, {"sub", 3, 0}, {".", 15, 0}},
		},
		{
			name: "exclude pattern",
			opts: CrawlOptions{DirDepth: NoDirDepth, Exclude: []string{"*.log"}},
			want: []emitted{{"a.txt", 10, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "excluded directory is not entered",
			opts: CrawlOptions{DirDepth: NoDirDepth, Exclude: []string{"sub"}},
			want: []emitted{{"a.txt", 10, 0}, {"b.log", 5, 0}},
		},
		{
			name: "case-insensitive exclude",
			opts: CrawlOptions{DirDepth: NoDirDepth, ExcludeFold: []string{"A.TXT"}},
			want: []emitted{{"b.log", 5, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "include pattern",
			opts: CrawlOptions{DirDepth: NoDirDepth, Include: []string{"*.txt"}},
			want: []emitted{{"a.txt", 10, 0}, {"sub/c.txt", 3, 0}, {"sub/deep/d.txt", 7, 0}},
		},
		{
			name: "case-insensitive include",
			opts: CrawlOptions{DirDepth: NoDirDepth, IncludeFold: []string{"*.LOG"}},
			want: []emitted{{"b.log", 5, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := makeTree(t)
			assert.Equal(t, tt.want, crawl(t, tt.opts, root))
		})
	}
}

func TestCrawler_FileArgument(t *testing.T) {
	root := makeTree(t)
	var got []emitted
	err := NewCrawler(CrawlOptions{DirDepth: NoDirDepth}).Crawl(context.Background(), filepath.Join(root, "a.txt"),
		func(path string, size uint64, errno int) error {
			got = append(got, emitted{path, size, errno})
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []emitted{{filepath.Join(root, "a.txt"), 10, 0}}, got)
}

func TestCrawler_MissingRoot(t *testing.T) {
	got := crawl(t, CrawlOptions{DirDepth: NoDirDepth}, filepath.Join(t.TempDir(), "missing"))
	assert.Empty(t, got)
}

func TestCrawler_Symlinks(t *testing.T) {
	root := makeTree(t)
	require.NoError(t, os.Symlink("sub", filepath.Join(root, "link")))

	t.Run("not followed", func(t *testing.T) {
		got := crawl(t, CrawlOptions{DirDepth: NoDirDepth}, root)
		assert.Contains(t, got, emitted{"link", 0, 0})
		assert.NotContains(t, got, emitted{"link/c.txt", 3, 0})
	})

	t.Run("followed", func(t *testing.T) {
		got := crawl(t, CrawlOptions{DirDepth: NoDirDepth, FollowSymlinks: true}, root)
		assert.Contains(t, got, emitted{"link/c.txt", 3, 0})
		assert.Contains(t, got, emitted{"link/deep/d.txt", 7, 0})
	})
}

func TestCrawler_SymlinkLoop(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x", "f"), []byte("1"), 0o644))
	require.NoError(t, os.Symlink("..", filepath.Join(root, "x", "up")))

	got := crawl(t, CrawlOptions{DirDepth: NoDirDepth, FollowSymlinks: true}, root)
	assert.Equal(t, []emitted{{"x/f", 1, 0}}, got)

	got = crawl(t, CrawlOptions{DirDepth: NoDirDepth}, root)
	assert.Equal(t, []emitted{{"x/f", 1, 0}, {"x/up", 0, 0}}, got)
}

func TestCrawler_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := makeTree(t)
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Mkdir(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "hidden"), []byte("abc"), 0o644))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	t.Run("skipped by default", func(t *testing.T) {
		got := crawl(t, CrawlOptions{DirDepth: NoDirDepth, DirsInclude: DirsEmpty}, root)
		for _, e := range got {
			assert.NotEqual(t, "locked", e.path)
		}
	})

	t.Run("listed with its errno", func(t *testing.T) {
		got := crawl(t, CrawlOptions{DirDepth: NoDirDepth, DirsInclude: DirsUnreadable}, root)
		assert.Contains(t, got, emitted{"locked", 0, int(unix.EACCES)})
	})
}

func TestCrawler_Stops(t *testing.T) {
	root := makeTree(t)
	errBoom := errors.New("boom")

	calls := 0
	err := NewCrawler(CrawlOptions{DirDepth: NoDirDepth}).Crawl(context.Background(), root, func(string, uint64, int) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewCrawler(CrawlOptions{DirDepth: NoDirDepth}).Crawl(ctx, root, func(string, uint64, int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestUsage(t *testing.T) {
	root := makeTree(t)
	c := NewCrawler(CrawlOptions{DirDepth: NoDirDepth})

	u, err := c.Usage(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, Usage{Files: 4, Dirs: 4, Size: 25}, u)
	assert.Equal(t, uint64(10), c.TreeSize(filepath.Join(root, "sub")))

	_, err = c.Usage(context.Background(), filepath.Join(root, "a.txt"))
	require.ErrorIs(t, err, ErrExpectedDirectory)

	_, err = c.Usage(context.Background(), filepath.Join(root, "nonexistent"))
	assert.True(t, os.IsNotExist(err))
}

func TestErrno(t *testing.T) {
	assert.Equal(t, 0, Errno(nil))
	assert.Equal(t, int(unix.EACCES), Errno(&fs.PathError{Op: "open", Path: "x", Err: unix.EACCES}))
	assert.Equal(t, int(unix.EIO), Errno(errors.New("opaque")))
}
