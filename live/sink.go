package live

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/martymac/fpart/util"
)

// Sink receives the entries of one partition.
type Sink interface {
	Write(path string, size uint64) error
	Close() error
}

// SinkOpener provides one Sink per partition. Name is called before the
// pre-part hook runs and Open right after it.
type SinkOpener interface {
	// Name returns the file backing partition label, or "" when there is
	// none.
	Name(label int) string
	Open(label int) (Sink, error)
}

// Stream prints all partitions to a single writer using the
// "label\tsize\tpath" listing format.
type Stream struct {
	w *bufio.Writer
}

// NewStream returns a Stream on w. If w already is a *bufio.Writer it is
// used directly so that other users of w keep a consistent ordering.
func NewStream(w io.Writer) *Stream {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Stream{w: bw}
}

func (s *Stream) Name(int) string { return "" }

func (s *Stream) Open(label int) (Sink, error) {
	return &streamSink{w: s.w, label: label}, nil
}

type streamSink struct {
	w     *bufio.Writer
	label int
}

func (s *streamSink) Write(path string, size uint64) error {
	return util.WriteEntryLine(s.w, s.label, size, path)
}

// Close flushes the stream so that hooks see the whole partition.
func (s *streamSink) Close() error {
	return s.w.Flush()
}

// Files writes every partition to its own file named <template>.<label>,
// one path per line.
type Files struct {
	template string
	nul      bool
}

// NewFiles returns a Files opener. With nul set, paths are terminated by a
// NUL byte instead of a newline.
func NewFiles(template string, nul bool) *Files {
	return &Files{template: template, nul: nul}
}

func (f *Files) Name(label int) string {
	return util.PartitionFilename(f.template, label)
}

func (f *Files) Open(label int) (Sink, error) {
	name := f.Name(label)
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o660)
	if err != nil {
		return nil, fmt.Errorf("opening partition file: %w", err)
	}
	return &fileSink{file: file, w: bufio.NewWriter(file), nul: f.nul}, nil
}

type fileSink struct {
	file *os.File
	w    *bufio.Writer
	nul  bool
}

func (s *fileSink) Write(path string, _ uint64) error {
	if err := util.WritePath(s.w, path, s.nul); err != nil {
		return fmt.Errorf("writing %s: %w", s.file.Name(), err)
	}
	return nil
}

func (s *fileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("writing %s: %w", s.file.Name(), err)
	}
	return s.file.Close()
}
