package util

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/martymac/fpart/partition"
	"github.com/rs/zerolog"
)

// filesPerChunk bounds the number of partition files open at once.
const filesPerChunk = 32

// WriteEntryLine prints an entry in the listing format
// "<label>\t<size>\t<path>\n".
func WriteEntryLine(w io.Writer, label int, size uint64, path string) error {
	_, err := fmt.Fprintf(w, "%d\t%d\t%s\n", label, size, path)
	return err
}

// WriteSkippedLine prints an entry left out of all partitions as
// "S\t<size>\t<path>\n".
func WriteSkippedLine(w io.Writer, size uint64, path string) error {
	_, err := fmt.Fprintf(w, "S\t%d\t%s\n", size, path)
	return err
}

// WritePath writes path followed by a newline, or a NUL byte when nul is set.
func WritePath(w io.Writer, path string, nul bool) error {
	term := "\n"
	if nul {
		term = "\x00"
	}
	_, err := io.WriteString(w, path+term)
	return err
}

// PartitionFilename returns the list file name of a partition.
func PartitionFilename(template string, label int) string {
	return template + "." + strconv.Itoa(label)
}

// WriteEntries prints every entry of s, in insertion order, with the label
// of the partition it was assigned to.
func WriteEntries(w io.Writer, s *partition.EntryStore, r *partition.Registry) error {
	bw := bufio.NewWriter(w)
	for e := range s.Iterate {
		if err := WriteEntryLine(bw, r.Label(e.Partition), e.Size, e.Path); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WritePartitionFiles writes one file per partition named after template,
// holding the paths of its entries. Files are opened filesPerChunk at a time
// and the entries are scanned once per chunk. An empty partition 0 gets no
// file.
func WritePartitionFiles(template string, nul bool, s *partition.EntryStore, r *partition.Registry) error {
	if template == "" {
		return ErrNoTemplate
	}
	for first := 0; first < r.Len(); first += filesPerChunk {
		last := min(first+filesPerChunk, r.Len())
		if err := writeChunk(template, nul, s, r, first, last); err != nil {
			return err
		}
	}
	return nil
}

type listFile struct {
	f *os.File
	w *bufio.Writer
}

func writeChunk(template string, nul bool, s *partition.EntryStore, r *partition.Registry, first, last int) (err error) {
	files := make([]*listFile, last-first)
	defer func() {
		for _, lf := range files {
			if lf == nil {
				continue
			}
			if ferr := lf.w.Flush(); ferr != nil {
				err = errors.Join(err, fmt.Errorf("writing %s: %w", lf.f.Name(), ferr))
			}
			if cerr := lf.f.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()

	for i := first; i < last; i++ {
		p, err := r.At(i)
		if err != nil {
			return err
		}
		if i == 0 && p.NumFiles == 0 {
			continue
		}
		f, err := os.OpenFile(PartitionFilename(template, r.Label(i)), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o660)
		if err != nil {
			return fmt.Errorf("opening partition file: %w", err)
		}
		files[i-first] = &listFile{f: f, w: bufio.NewWriter(f)}
	}

	for e := range s.Iterate {
		if e.Partition < first || e.Partition >= last {
			continue
		}
		lf := files[e.Partition-first]
		if lf == nil {
			return fmt.Errorf("%w: %d", partition.ErrPartitionNotFound, e.Partition)
		}
		if err := WritePath(lf.w, e.Path, nul); err != nil {
			return fmt.Errorf("writing %s: %w", lf.f.Name(), err)
		}
	}
	return nil
}

// LogPartitions logs a summary line per partition at info level. An empty
// overflow partition is not reported.
func LogPartitions(log zerolog.Logger, r *partition.Registry) {
	for i, p := range r.Iterate {
		if i == 0 && r.HasOverflow() && p.NumFiles == 0 {
			continue
		}
		log.Info().
			Int("part", r.Label(i)).
			Uint64("size", p.Size).
			Uint64("files", p.NumFiles).
			Msgf("Part #%d: size = %d, %d file(s)", r.Label(i), p.Size, p.NumFiles)
	}
}
