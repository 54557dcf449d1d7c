package util

import (
	"context"
	"os"
	"slices"
)

// Usage summarizes a directory tree.
type Usage struct {
	Files uint64 // non-directory entries
	Dirs  uint64 // directories, the root included
	Size  uint64 // bytes in regular files
}

// TreeSize returns the total size of the regular files below path, following
// the crawler's symlink and filesystem options. Errors are logged and the
// unreadable parts are left out.
func (c *Crawler) TreeSize(path string) uint64 {
	u, err := c.Usage(context.Background(), path)
	if err != nil {
		c.warn(path, err)
	}
	return u.Size
}

// Usage walks the directory path and counts what it holds. Exclude and
// include patterns are not applied.
func (c *Crawler) Usage(ctx context.Context, path string) (Usage, error) {
	var u Usage
	info, err := c.stat(path)
	if err != nil {
		return u, err
	}
	if !info.IsDir() {
		return u, ErrExpectedDirectory
	}
	id, err := c.identify(path)
	if err != nil {
		return u, err
	}
	err = c.usage(ctx, path, id.dev, []fileID{id}, &u)
	return u, err
}

func (c *Crawler) usage(ctx context.Context, path string, rootDev uint64, ancestors []fileID, u *Usage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.Dirs++

	entries, err := os.ReadDir(path)
	if err != nil {
		c.warn(path, err)
	}
	for _, e := range entries {
		p := joinPath(path, e.Name())
		info, err := c.stat(p)
		if err != nil {
			c.warn(p, err)
			continue
		}
		if !info.IsDir() {
			u.Files++
			u.Size += leafSize(info)
			continue
		}

		id, err := c.identify(p)
		if err != nil {
			c.warn(p, err)
			continue
		}
		if c.opts.OneFileSystem && id.dev != rootDev {
			u.Dirs++
			continue
		}
		if slices.Contains(ancestors, id) {
			c.warn(p, ErrFilesystemLoop)
			continue
		}
		if err := c.usage(ctx, p, rootDev, append(slices.Clip(ancestors), id), u); err != nil {
			return err
		}
	}
	return nil
}
