package util

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Directory inclusion levels for CrawlOptions.DirsInclude.
const (
	DirsNone       = iota // directories are crawled, never listed
	DirsEmpty             // list empty directories
	DirsUnreadable        // also list directories that cannot be read
	DirsAll               // list every directory, with a size of 0
)

// NoDirDepth disables CrawlOptions.DirDepth.
const NoDirDepth = -1

// CrawlOptions select which entries a Crawler emits.
type CrawlOptions struct {
	FollowSymlinks bool
	OneFileSystem  bool

	// Include patterns restrict leaves only; exclude patterns apply to every
	// entry. Patterns use filepath.Match syntax and are tested against both
	// the base name and the full path.
	Include     []string
	IncludeFold []string
	Exclude     []string
	ExcludeFold []string

	DirsInclude int
	// DirDepth turns directories at that depth into single entries carrying
	// their recursive size.
	DirDepth int
	// LeafDirs turns leaf directories into single entries.
	LeafDirs bool
	// DirsOnly lists directories instead of files.
	DirsOnly bool
	// AddSlash appends a slash to listed directories.
	AddSlash bool
}

// EmitFunc receives crawled entries. errno is the traversal error attached
// to the entry, 0 if none. Returning an error stops the crawl.
type EmitFunc func(path string, size uint64, errno int) error

// Crawler walks file hierarchies.
type Crawler struct {
	opts CrawlOptions
	log  zerolog.Logger
}

// NewCrawler returns a Crawler. A zero DirDepth is honoured; use NoDirDepth
// to disable it.
func NewCrawler(opts CrawlOptions) *Crawler {
	return &Crawler{opts: opts, log: zerolog.Nop()}
}

// SetLogger sets the logger used to report traversal errors.
func (c *Crawler) SetLogger(l zerolog.Logger) {
	c.log = l
}

type fileID struct {
	dev uint64
	ino uint64
}

type crawlDir struct {
	path  string
	info  fs.FileInfo
	id    fileID
	level int
	// ancestors is only tracked when following symlinks
	ancestors []fileID
}

// per-directory state, updated while its children are visited
type dirState struct {
	empty   bool
	hasDirs bool
	size    uint64 // single-depth size of files passing exclude filters
	crawled bool
}

type child struct {
	path string
	info fs.FileInfo
	err  error
}

// Crawl walks root and emits its entries. Only ctx cancellation and emit
// errors are returned; traversal errors are logged.
func (c *Crawler) Crawl(ctx context.Context, root string, emit EmitFunc) error {
	info, err := c.stat(root)
	if err != nil {
		c.warn(root, err)
		return nil
	}
	if !info.IsDir() {
		if !c.valid(root, true, false) {
			c.log.Debug().Str("path", root).Msg("skipping file")
			return nil
		}
		return emit(root, leafSize(info), 0)
	}

	id, err := c.identify(root)
	if err != nil {
		c.warn(root, err)
		return nil
	}
	dir := crawlDir{path: root, info: info, id: id}
	if c.opts.FollowSymlinks {
		dir.ancestors = []fileID{id}
	}
	_, err = c.walkDir(ctx, dir, id.dev, emit)
	return err
}

// walkDir visits dir and reports whether the parent must see it.
func (c *Crawler) walkDir(ctx context.Context, dir crawlDir, rootDev uint64, emit EmitFunc) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.log.Trace().Str("path", dir.path).Int("level", dir.level).Msg("entering directory")

	if !c.valid(dir.path, false, true) {
		c.log.Debug().Str("path", dir.path).Msg("skipping directory")
		return false, nil
	}

	st := dirState{empty: true}
	addMe := false

	if c.opts.DirDepth != NoDirDepth && dir.level >= c.opts.DirDepth {
		addMe = true
		st.empty = false
		return true, c.addDir(dir, st, addMe, 0, emit)
	}

	if c.opts.OneFileSystem && dir.id.dev != rootDev {
		// mount point: listed as an empty directory, never entered
		return true, c.addDir(dir, st, addMe, 0, emit)
	}

	children, err := c.readDir(dir.path)
	if err != nil {
		errno := Errno(err)
		c.warn(dir.path, err)
		if c.opts.DirsInclude >= DirsUnreadable {
			return true, c.addDir(dir, st, addMe, errno, emit)
		}
		if len(children) == 0 {
			return true, nil
		}
		// partial read: go on with what we got
	}
	st.crawled = true

	for _, ch := range children {
		if ch.err != nil {
			c.warn(ch.path, ch.err)
			st.empty = false
			continue
		}

		if ch.info.IsDir() {
			sub, err := c.subdir(dir, ch)
			if err != nil {
				c.warn(ch.path, err)
				st.empty = false
				continue
			}
			seen, err := c.walkDir(ctx, sub, rootDev, emit)
			if err != nil {
				return false, err
			}
			if seen {
				st.empty = false
				st.hasDirs = true
			}
			continue
		}

		size := leafSize(ch.info)
		if c.valid(ch.path, true, true) {
			st.empty = false
			st.size += size
		}
		if !c.valid(ch.path, true, false) {
			c.log.Debug().Str("path", ch.path).Msg("skipping file")
			continue
		}
		if c.opts.DirsOnly || (c.opts.LeafDirs && !st.hasDirs) {
			continue
		}
		if err := emit(ch.path, size, 0); err != nil {
			return false, err
		}
	}

	return true, c.addDir(dir, st, addMe, 0, emit)
}

func (c *Crawler) subdir(parent crawlDir, ch child) (crawlDir, error) {
	id, err := c.identify(ch.path)
	if err != nil {
		return crawlDir{}, err
	}
	sub := crawlDir{path: ch.path, info: ch.info, id: id, level: parent.level + 1}
	if c.opts.FollowSymlinks {
		if slices.Contains(parent.ancestors, id) {
			return crawlDir{}, ErrFilesystemLoop
		}
		sub.ancestors = append(slices.Clip(parent.ancestors), id)
	}
	return sub, nil
}

// addDir emits dir once its children have been visited, if the directory
// options ask for it.
func (c *Crawler) addDir(dir crawlDir, st dirState, addMe bool, errno int, emit EmitFunc) error {
	if c.opts.DirsOnly ||
		(c.opts.LeafDirs && !st.hasDirs) ||
		(c.opts.DirsInclude >= DirsEmpty && st.empty) {
		addMe = true
	}
	if !addMe && c.opts.DirsInclude >= DirsAll {
		addMe = true
		st.empty = true
	}
	if !addMe {
		return nil
	}
	if !c.valid(dir.path, true, false) {
		c.log.Debug().Str("path", dir.path).Msg("skipping directory")
		return nil
	}

	name := dir.path
	if c.opts.AddSlash && name != "" && !strings.HasSuffix(name, "/") {
		name += "/"
	}

	var size uint64
	switch {
	case st.empty:
	case !st.crawled || (!c.opts.DirsOnly && (!c.opts.LeafDirs || st.hasDirs)):
		size = c.TreeSize(dir.path)
	default:
		size = st.size
	}
	return emit(name, size, errno)
}

func (c *Crawler) readDir(path string) ([]child, error) {
	entries, err := os.ReadDir(path)
	children := make([]child, 0, len(entries))
	for _, e := range entries {
		p := joinPath(path, e.Name())
		info, statErr := c.stat(p)
		children = append(children, child{path: p, info: info, err: statErr})
	}

	if c.opts.DirsOnly || c.opts.LeafDirs {
		slices.SortStableFunc(children, func(a, b child) int {
			return dirRank(a) - dirRank(b)
		})
	}
	return children, err
}

func dirRank(ch child) int {
	if ch.err == nil && ch.info.IsDir() {
		return 0
	}
	return 1
}

func (c *Crawler) stat(path string) (fs.FileInfo, error) {
	if c.opts.FollowSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (c *Crawler) identify(path string) (fileID, error) {
	var st unix.Stat_t
	var err error
	if c.opts.FollowSymlinks {
		err = unix.Stat(path, &st)
	} else {
		err = unix.Lstat(path, &st)
	}
	if err != nil {
		return fileID{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// valid applies include patterns to leaves and exclude patterns to
// everything. excludeOnly skips include patterns.
func (c *Crawler) valid(path string, leaf, excludeOnly bool) bool {
	ok := true
	if leaf && !excludeOnly && (len(c.opts.Include) > 0 || len(c.opts.IncludeFold) > 0) {
		ok = matchAny(c.opts.Include, path, false) || matchAny(c.opts.IncludeFold, path, true)
	}
	if matchAny(c.opts.Exclude, path, false) || matchAny(c.opts.ExcludeFold, path, true) {
		ok = false
	}
	return ok
}

func matchAny(patterns []string, path string, fold bool) bool {
	base := filepath.Base(path)
	if fold {
		base = strings.ToLower(base)
		path = strings.ToLower(path)
	}
	for _, p := range patterns {
		if fold {
			p = strings.ToLower(p)
		}
		if m, _ := filepath.Match(p, base); m {
			return true
		}
		if m, _ := filepath.Match(p, path); m {
			return true
		}
	}
	return false
}

func (c *Crawler) warn(path string, err error) {
	c.log.Warn().Err(err).Str("path", path).Msg("traversal error")
}

// leafSize is st_size for regular files and 0 for anything else.
func leafSize(info fs.FileInfo) uint64 {
	if !info.Mode().IsRegular() {
		return 0
	}
	return uint64(info.Size())
}

func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Errno extracts the system error number carried by err. Errors without one
// map to EIO so that they still flag the entry.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return int(unix.EIO)
}
