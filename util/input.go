package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxLineSize bounds a single input line; paths are limited well below that.
const maxLineSize = 1 << 20

// OpenInput opens an input list. "-" is stdin, which is never closed.
func OpenInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening input list: %w", err)
	}
	return f, nil
}

// ReadLines calls fn for every non-empty line of r, without its line
// terminator. It stops at the first error returned by fn.
func ReadLines(r io.Reader, fn func(line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// ParseArbitrary parses a "<size> <path>" line. Blanks around the size are
// ignored; the path is the rest of the line.
func ParseArbitrary(line string) (uint64, string, error) {
	s := strings.TrimLeft(line, " \t")
	end := strings.IndexAny(s, " \t")
	if end <= 0 {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidValueLine, line)
	}
	size, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %w", ErrInvalidValueLine, line, err)
	}
	path := strings.TrimLeft(s[end:], " \t")
	if path == "" {
		return 0, "", fmt.Errorf("%w: %q: %w", ErrInvalidValueLine, line, ErrEmptyPath)
	}
	return size, path, nil
}

// CleanArgument reduces trailing slashes of a path argument to a single one.
func CleanArgument(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == path {
		return path
	}
	return trimmed + "/"
}
