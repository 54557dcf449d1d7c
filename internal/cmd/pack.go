package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/martymac/fpart/hook"
	"github.com/martymac/fpart/internal/config"
	"github.com/martymac/fpart/live"
	"github.com/martymac/fpart/partition"
	"github.com/martymac/fpart/util"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewPackCmd creates and returns the pack subcommand, which sorts files into
// partitions.
func NewPackCmd() *cobra.Command {
	var configPath string
	opts := config.Default()

	cmd := &cobra.Command{
		Use:   "pack [flags] [FILE or DIR...]",
		Short: "Sort files and pack them into partitions",
		Long: `Sort files and pack them into partitions.

Partitions are either a fixed number of lists balanced by size (-n), or as
many lists as needed to honour a file count (-f) and/or size (-s) limit.
Paths come from the arguments, from an input list (-i) or from stdin when
neither is given. Directories are crawled recursively.

Each entry is printed as "<partition>\t<size>\t<path>" unless an output
template (-o) is given, in which case one list per partition is written to
<template>.<partition>.

Live mode (-L) crawls and packs in a single pass: partitions are written as
soon as they fill up, and hooks (-w, -W, -R) run around each of them with
FPART_* variables describing the partition in their environment.`,
		Example: `  # 3 partitions of equal size
  fpart pack -n 3 /data

  # partitions of at most 1000 files or 4GB, written to /tmp/part.<n>
  fpart pack -f 1000 -s 4G -o /tmp/part /data

  # synchronize each partition as soon as it is complete
  fpart pack -L -s 4G -o /tmp/part -W 'rsync -a --files-from=$FPART_PARTFILENAME / dst/' /data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := resolveOptions(cmd.Flags(), configPath, opts)
			if err != nil {
				return err
			}
			return runPack(cmd.Context(), merged, args, streams{
				in:  cmd.InOrStdin(),
				out: cmd.OutOrStdout(),
				err: cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().SortFlags = false
	bindPackFlags(cmd.Flags(), &opts)
	cmd.Flags().StringVar(&configPath, "config", "", "Read options from a YAML `file`; flags take precedence")

	return cmd
}

func bindPackFlags(fs *pflag.FlagSet, o *config.Options) {
	// Count flags reset their target to 0.
	verbose, dirs := o.Verbose, o.DirsInclude
	defer func() { o.Verbose, o.DirsInclude = verbose, dirs }()

	fs.Uint64VarP(&o.NumParts, "parts", "n", o.NumParts, "Pack files into `num` partitions")
	fs.Uint64VarP(&o.MaxEntries, "max-entries", "f", o.MaxEntries, "Limit partitions to `num` files")
	fs.VarP(&o.MaxSize, "max-size", "s", "Limit partitions to `size` bytes (k, M, G, T, P suffixes)")
	fs.StringVarP(&o.Input, "input", "i", o.Input, "Read paths from `file`, - for stdin")
	fs.BoolVarP(&o.ArbitraryValues, "arbitrary", "a", o.ArbitraryValues, "Read \"<size> <path>\" lines instead of crawling")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Write partitions to `template`.<n>, - for stdout")
	fs.BoolVarP(&o.OutZero, "null", "0", o.OutZero, "End paths with a NUL byte in partition files")
	fs.BoolVarP(&o.AddSlash, "add-slash", "e", o.AddSlash, "Add a slash to directory names")
	fs.CountVarP(&o.Verbose, "verbose", "v", "Increase verbosity, repeatable")

	fs.BoolVarP(&o.FollowSymlinks, "follow-symlinks", "l", o.FollowSymlinks, "Follow symbolic links")
	fs.BoolVarP(&o.OneFileSystem, "one-file-system", "b", o.OneFileSystem, "Do not cross file system boundaries")
	fs.StringArrayVarP(&o.Include, "include", "y", o.Include, "Only include files matching `pattern`, repeatable")
	fs.StringArrayVarP(&o.IncludeFold, "include-ci", "Y", o.IncludeFold, "Same as --include, ignoring case")
	fs.StringArrayVarP(&o.Exclude, "exclude", "x", o.Exclude, "Exclude files and directories matching `pattern`, repeatable")
	fs.StringArrayVarP(&o.ExcludeFold, "exclude-ci", "X", o.ExcludeFold, "Same as --exclude, ignoring case")
	fs.CountVarP(&o.DirsInclude, "dirs", "z", "Include empty (-z), unreadable (-zz) or all (-zzz) directories")
	fs.BoolVarP(&o.SplitOnError, "split-on-error", "Z", o.SplitOnError, "Isolate unreadable directories in their own partition")
	fs.IntVarP(&o.DirDepth, "depth", "d", o.DirDepth, "Pack directories at `depth` as single entries")
	fs.BoolVarP(&o.LeafDirs, "leaf-dirs", "D", o.LeafDirs, "Pack leaf directories as single entries")
	fs.BoolVarP(&o.DirsOnly, "dirs-only", "E", o.DirsOnly, "Pack directories only, never files")

	fs.BoolVarP(&o.Live, "live", "L", o.Live, "Live mode: crawl and pack in a single pass")
	fs.BoolVarP(&o.SkipBig, "skip-big", "S", o.SkipBig, "Skip entries bigger than --max-size instead of packing them alone")
	fs.StringVarP(&o.PrePartHook, "pre-part-hook", "w", o.PrePartHook, "Run `cmd` before each partition")
	fs.StringVarP(&o.PostPartHook, "post-part-hook", "W", o.PostPartHook, "Run `cmd` after each partition")
	fs.StringVarP(&o.PostRunHook, "post-run-hook", "R", o.PostRunHook, "Run `cmd` once all partitions are written")
	fs.BoolVarP(&o.AddParents, "add-parents", "P", o.AddParents, "Add parent directories when closing a partition")

	fs.VarP(&o.PreloadSize, "preload", "p", "Preload each partition with `size` bytes")
	fs.VarP(&o.OverloadSize, "overload", "q", "Add `size` bytes to each entry")
	fs.VarP(&o.RoundSize, "round", "r", "Round entry sizes up to a multiple of `size`")
}

// resolveOptions loads the config file, if any, then applies the flags that
// were set on the command line over it.
func resolveOptions(flags *pflag.FlagSet, path string, parsed config.Options) (config.Options, error) {
	if path == "" {
		return parsed, nil
	}
	opts, err := config.Load(path)
	if err != nil {
		return config.Options{}, err
	}

	replay := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	bindPackFlags(replay, &opts)

	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		target := replay.Lookup(f.Name)
		if target == nil {
			return
		}
		if src, ok := f.Value.(pflag.SliceValue); ok {
			errs = append(errs, target.Value.(pflag.SliceValue).Replace(src.GetSlice()))
			return
		}
		errs = append(errs, target.Value.Set(f.Value.String()))
	})
	if err := errors.Join(errs...); err != nil {
		return config.Options{}, fmt.Errorf("applying flags over %s: %w", path, err)
	}
	return opts, nil
}

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func runPack(ctx context.Context, opts config.Options, args []string, s streams) error {
	opts.Normalize()
	if err := opts.Validate(); err != nil {
		return err
	}
	log := newLogger(s.err, opts.Verbose).With().Str("run", uuid.NewString()).Logger()

	if opts.ToFile() {
		abs, err := filepath.Abs(opts.Output)
		if err != nil {
			return fmt.Errorf("resolving output template: %w", err)
		}
		opts.Output = abs
	}
	if opts.Input == "" && len(args) == 0 {
		opts.Input = "-"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := bufio.NewWriter(s.out)
	p := newPacker(opts, log)

	var hooks terminator
	if opts.Live {
		runner := hook.NewRunner(hook.WithOutput(s.out, s.err), hook.WithLogger(log))
		var sinks live.SinkOpener = live.NewStream(out)
		if opts.ToFile() {
			sinks = live.NewFiles(opts.Output, opts.OutZero)
		}
		p.live = live.New(p.liveConfig(), sinks,
			live.WithHooks(runner),
			live.WithSkipped(out),
			live.WithLogger(log))
		hooks = runner
	}
	stop := watchSignals(cancel, hooks, log)
	defer stop()

	var input io.Reader
	switch opts.Input {
	case "":
	case "-":
		input = s.in
	default:
		f, err := util.OpenInput(opts.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	if err := p.run(ctx, input, args, out); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// packer collects entries and dispatches them, at the end of the run or on
// the fly in live mode.
type packer struct {
	opts    config.Options
	log     zerolog.Logger
	adjust  partition.Adjuster
	crawler *util.Crawler
	store   *partition.EntryStore
	live    *live.Dispatcher
	found   uint64
}

func newPacker(opts config.Options, log zerolog.Logger) *packer {
	crawler := util.NewCrawler(util.CrawlOptions{
		FollowSymlinks: opts.FollowSymlinks,
		OneFileSystem:  opts.OneFileSystem,
		Include:        opts.Include,
		IncludeFold:    opts.IncludeFold,
		Exclude:        opts.Exclude,
		ExcludeFold:    opts.ExcludeFold,
		DirsInclude:    opts.DirsInclude,
		DirDepth:       opts.DirDepth,
		LeafDirs:       opts.LeafDirs,
		DirsOnly:       opts.DirsOnly,
		AddSlash:       opts.AddSlash,
	})
	crawler.SetLogger(log)
	return &packer{
		opts: opts,
		log:  log,
		adjust: partition.Adjuster{
			Overload: opts.OverloadSize.Bytes(),
			Round:    opts.RoundSize.Bytes(),
		},
		crawler: crawler,
		store:   partition.NewEntryStore(0),
	}
}

func (p *packer) liveConfig() live.Config {
	return live.Config{
		MaxEntries:   p.opts.MaxEntries,
		MaxSize:      p.opts.MaxSize.Bytes(),
		PreloadSize:  p.opts.PreloadSize.Bytes(),
		SkipBig:      p.opts.SkipBig,
		SplitOnError: p.opts.SplitOnError,
		AddParents:   p.opts.AddParents,
		AddSlash:     p.opts.AddSlash,
		PrePartHook:  p.opts.PrePartHook,
		PostPartHook: p.opts.PostPartHook,
		PostRunHook:  p.opts.PostRunHook,
	}
}

func (p *packer) run(ctx context.Context, input io.Reader, args []string, out io.Writer) error {
	p.log.Info().Msg("examining filesystem")

	if input != nil {
		err := util.ReadLines(input, func(line string) error {
			return p.handleArgument(ctx, line)
		})
		if err != nil {
			return err
		}
	}
	for _, arg := range args {
		if err := p.handleArgument(ctx, arg); err != nil {
			return err
		}
	}
	p.log.Info().Uint64("files", p.found).Msgf("%d file(s) found", p.found)

	if p.live != nil {
		return p.live.Finalize(ctx)
	}
	if p.found == 0 {
		return nil
	}
	return p.dispatch(out)
}

func (p *packer) handleArgument(ctx context.Context, arg string) error {
	if p.opts.ArbitraryValues {
		size, path, err := util.ParseArbitrary(arg)
		if err != nil {
			p.log.Warn().Err(err).Msg("skipping invalid line")
			return nil
		}
		return p.handleEntry(ctx, path, size, 0)
	}

	root := util.CleanArgument(arg)
	if p.live != nil {
		p.live.SetRoot(root)
	}
	return p.crawler.Crawl(ctx, root, func(path string, size uint64, errno int) error {
		return p.handleEntry(ctx, path, size, errno)
	})
}

func (p *packer) handleEntry(ctx context.Context, path string, size uint64, errno int) error {
	size = p.adjust.Adjust(size)
	p.found++
	p.log.Trace().Str("path", path).Uint64("size", size).Int("errno", errno).Msg("entry")

	if p.live != nil {
		_, err := p.live.Process(ctx, path, size, errno)
		return err
	}
	p.store.Add(path, size, errno)
	return nil
}

func (p *packer) dispatch(out io.Writer) error {
	var r *partition.Registry
	preload := p.opts.PreloadSize.Bytes()

	if p.opts.NumParts > 0 {
		p.log.Info().Msg("sorting entries")
		r = partition.NewFixedRegistry(int(p.opts.NumParts), preload)
		if err := partition.DispatchBySize(p.store.SortedBySize(), r); err != nil {
			return fmt.Errorf("dispatching entries: %w", err)
		}
		moved, err := partition.RebalanceEmpty(p.store, r)
		if err != nil {
			return fmt.Errorf("dispatching empty entries: %w", err)
		}
		p.log.Debug().Int("moved", moved).Msg("rebalanced empty entries")
	} else {
		r = partition.NewRegistry(preload)
		limits := partition.Limits{MaxEntries: p.opts.MaxEntries, MaxSize: p.opts.MaxSize.Bytes()}
		n, err := partition.DispatchByLimits(p.store, r, limits)
		if err != nil {
			return fmt.Errorf("dispatching entries: %w", err)
		}
		p.log.Debug().Int("partitions", n).Msg("dispatched entries")
	}

	util.LogPartitions(p.log, r)
	p.log.Info().Msg("writing output lists")

	if p.opts.ToFile() {
		return util.WritePartitionFiles(p.opts.Output, p.opts.OutZero, p.store, r)
	}
	return util.WriteEntries(out, p.store, r)
}
