package live

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/martymac/fpart/hook"
	"github.com/martymac/fpart/partition"
	"github.com/martymac/fpart/util"
	"github.com/rs/zerolog"
)

// State of the dispatcher between two entries.
type State int

const (
	AwaitingFirstEntry State = iota
	Accumulating
	ClosingPartition
)

func (s State) String() string {
	switch s {
	case AwaitingFirstEntry:
		return "awaiting-first-entry"
	case Accumulating:
		return "accumulating"
	case ClosingPartition:
		return "closing-partition"
	default:
		return "unknown"
	}
}

// Outcome tells what Process did with an entry.
type Outcome int

const (
	Added Outcome = iota
	Skipped
)

// Config holds the live mode settings. Limits of 0 are unbounded; at least
// one of them is expected to be set.
type Config struct {
	MaxEntries  uint64
	MaxSize     uint64
	PreloadSize uint64

	// SkipBig sends entries that cannot fit an empty partition to the
	// skipped channel instead of dispatching them.
	SkipBig bool
	// SplitOnError isolates entries carrying a traversal error in their own
	// partition.
	SplitOnError bool
	// AddParents appends the parent directories of the last entry, up to the
	// crawl root, when a partition closes.
	AddParents bool
	// AddSlash keeps a trailing slash on added parent directories.
	AddSlash bool

	PrePartHook  string
	PostPartHook string
	PostRunHook  string
}

// HookRunner executes a hook command and waits for it.
type HookRunner interface {
	Run(ctx context.Context, command string, env hook.Env) error
}

// Totals are the run-wide counters, preloads included.
type Totals struct {
	Size     uint64
	NumFiles uint64
	NumParts uint64
}

// Dispatcher is the live mode state machine. It is not safe for concurrent
// use.
type Dispatcher struct {
	cfg     Config
	sinks   SinkOpener
	hooks   HookRunner
	skipped io.Writer
	log     zerolog.Logger
	pid     int
	root    string

	state State
	index int
	part  partition.Partition
	errno int
	name  string
	sink  Sink
	last  string

	totals     Totals
	hookFailed bool
	finalized  bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHooks sets the runner used for hooks. A hook.Runner is used by default.
func WithHooks(h HookRunner) Option {
	return func(d *Dispatcher) { d.hooks = h }
}

// WithSkipped sets where skipped entries are reported (stdout by default).
func WithSkipped(w io.Writer) Option {
	return func(d *Dispatcher) { d.skipped = w }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithPID overrides the process id exported to hooks.
func WithPID(pid int) Option {
	return func(d *Dispatcher) { d.pid = pid }
}

// New returns a Dispatcher writing partitions through sinks.
func New(cfg Config, sinks SinkOpener, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:     cfg,
		sinks:   sinks,
		skipped: os.Stdout,
		log:     zerolog.Nop(),
		pid:     os.Getpid(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hooks == nil {
		d.hooks = hook.NewRunner(hook.WithLogger(d.log))
	}
	return d
}

// SetRoot records the path being crawled. Parent directories added on
// partition close never go above it.
func (d *Dispatcher) SetRoot(root string) {
	d.root = root
}

// State returns the current state.
func (d *Dispatcher) State() State { return d.state }

// Label returns the display number of the current partition.
func (d *Dispatcher) Label() int { return partition.Label(d.index, false) }

// Totals returns the run-wide counters.
func (d *Dispatcher) Totals() Totals { return d.totals }

// HookFailed reports whether any hook failed so far.
func (d *Dispatcher) HookFailed() bool { return d.hookFailed }

// Process dispatches one entry. errno is the traversal error attached to the
// entry, 0 if none. The returned error is fatal: sink failures wrap ErrSink
// and a cancelled context is returned as is.
func (d *Dispatcher) Process(ctx context.Context, path string, size uint64, errno int) (Outcome, error) {
	if d.finalized {
		return Added, ErrFinalized
	}
	if err := ctx.Err(); err != nil {
		return Added, err
	}

	if d.cfg.SkipBig && d.tooBig(size) {
		d.log.Debug().Str("path", path).Uint64("size", size).Msg("skipping big entry")
		if err := util.WriteSkippedLine(d.skipped, size, path); err != nil {
			return Skipped, fmt.Errorf("%w: reporting skipped entry: %w", ErrSink, err)
		}
		if f, ok := d.skipped.(interface{ Flush() error }); ok {
			if err := f.Flush(); err != nil {
				return Skipped, fmt.Errorf("%w: reporting skipped entry: %w", ErrSink, err)
			}
		}
		return Skipped, nil
	}

	if d.state == AwaitingFirstEntry {
		if err := d.start(ctx); err != nil {
			return Added, err
		}
	}

	split := false
	if d.cfg.SplitOnError && errno != 0 {
		if d.part.NumFiles > 0 {
			if err := d.close(ctx); err != nil {
				return Added, err
			}
			if err := d.start(ctx); err != nil {
				return Added, err
			}
		}
		split = true
	}

	if err := d.add(path, size, errno); err != nil {
		return Added, err
	}

	if split || d.full() {
		return Added, d.close(ctx)
	}
	return Added, nil
}

// Finalize closes the partition being filled, if any, and runs the post-run
// hook. The dispatcher cannot be used afterwards.
func (d *Dispatcher) Finalize(ctx context.Context) error {
	if d.finalized {
		return ErrFinalized
	}
	d.finalized = true

	if d.sink != nil {
		if d.part.NumFiles > 0 {
			if err := d.close(ctx); err != nil {
				return err
			}
		} else if err := d.sink.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrSink, err)
		}
	}

	if err := d.runHook(ctx, hook.PostRun, d.cfg.PostRunHook); err != nil {
		return err
	}
	if d.hookFailed {
		d.log.Info().Msg("at least one hook failed")
	}
	return nil
}

func (d *Dispatcher) tooBig(size uint64) bool {
	return size > d.cfg.MaxSize || d.cfg.PreloadSize > d.cfg.MaxSize-size
}

func (d *Dispatcher) full() bool {
	return (d.cfg.MaxEntries > 0 && d.part.NumFiles >= d.cfg.MaxEntries) ||
		(d.cfg.MaxSize > 0 && d.part.Size >= d.cfg.MaxSize)
}

func (d *Dispatcher) start(ctx context.Context) error {
	d.part = partition.Partition{Size: d.cfg.PreloadSize}
	d.errno = 0
	d.last = ""
	d.totals.Size += d.cfg.PreloadSize
	d.totals.NumParts++

	label := d.Label()
	d.name = d.sinks.Name(label)
	if err := d.runHook(ctx, hook.PrePart, d.cfg.PrePartHook); err != nil {
		return err
	}

	sink, err := d.sinks.Open(label)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	d.sink = sink
	d.state = Accumulating
	return nil
}

func (d *Dispatcher) add(path string, size uint64, errno int) error {
	d.part.Size += size
	d.part.NumFiles++
	d.totals.Size += size
	d.totals.NumFiles++
	if errno != 0 {
		d.errno = errno
	}

	if err := d.sink.Write(path, size); err != nil {
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	d.last = path
	d.log.Debug().Int("part", d.Label()).Uint64("size", size).Str("path", path).Msg("added entry")
	return nil
}

func (d *Dispatcher) close(ctx context.Context) error {
	d.state = ClosingPartition

	if d.cfg.AddParents && d.last != "" {
		d.log.Debug().Int("part", d.Label()).Msg("adding parents to finalize partition")
		for _, parent := range parents(d.last, d.root, d.cfg.AddSlash) {
			if err := d.sink.Write(parent, 0); err != nil {
				return fmt.Errorf("%w: %w", ErrSink, err)
			}
		}
	}

	d.log.Info().
		Int("part", d.Label()).
		Uint64("size", d.part.Size).
		Uint64("files", d.part.NumFiles).
		Int("errno", d.errno).
		Msg("partition closed")

	if err := d.sink.Close(); err != nil {
		d.sink = nil
		return fmt.Errorf("%w: %w", ErrSink, err)
	}
	d.sink = nil

	if err := d.runHook(ctx, hook.PostPart, d.cfg.PostPartHook); err != nil {
		return err
	}

	d.index++
	d.part = partition.Partition{}
	d.errno = 0
	d.name = ""
	d.state = AwaitingFirstEntry
	return nil
}

// runHook only fails when ctx is done; a failing hook just marks the run.
func (d *Dispatcher) runHook(ctx context.Context, kind hook.Kind, command string) error {
	if command == "" {
		return nil
	}
	err := d.hooks.Run(ctx, command, d.env(kind))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	d.hookFailed = true
	d.log.Warn().Err(err).Str("hook", kind.String()).Msg("hook failed")
	return nil
}

func (d *Dispatcher) env(kind hook.Kind) hook.Env {
	e := hook.Env{
		Kind:          kind,
		TotalSize:     d.totals.Size,
		TotalNumFiles: d.totals.NumFiles,
		TotalNumParts: d.totals.NumParts,
		PID:           d.pid,
	}
	if kind != hook.PostRun {
		e.PartFilename = d.name
		e.PartNumber = d.Label()
		e.PartSize = d.part.Size
		e.PartNumFiles = d.part.NumFiles
		e.PartErrno = d.errno
	}
	return e
}

// parents lists the ancestors of path, nearest first, while they still
// contain root. The walk stops after "/".
func parents(path, root string, slash bool) []string {
	var out []string
	for p := parentPath(path, slash); p != "" && strings.Contains(p, root); p = parentPath(p, slash) {
		out = append(out, p)
		if p == "/" {
			break
		}
	}
	return out
}

func parentPath(path string, slash bool) string {
	trimmed := strings.TrimRight(path, "/")
	i := strings.LastIndexByte(trimmed, '/')
	if i < 0 {
		return ""
	}
	parent := strings.TrimRight(trimmed[:i], "/")
	if parent == "" {
		return "/"
	}
	if slash {
		parent += "/"
	}
	return parent
}
