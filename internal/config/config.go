package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/martymac/fpart/util"
	"gopkg.in/yaml.v3"
)

// Options is the full set of settings of a run. Zero limits are unset.
type Options struct {
	NumParts   uint64 `yaml:"num_parts"`
	MaxEntries uint64 `yaml:"max_entries"`
	MaxSize    Size   `yaml:"max_size"`

	// Input is an input list, "-" for stdin.
	Input           string `yaml:"input"`
	ArbitraryValues bool   `yaml:"arbitrary_values"`
	// Output is the partition file template, "-" or empty for stdout.
	Output   string `yaml:"output"`
	OutZero  bool   `yaml:"null_terminated"`
	AddSlash bool   `yaml:"add_slash"`
	Verbose  int    `yaml:"verbose"`

	FollowSymlinks bool     `yaml:"follow_symlinks"`
	OneFileSystem  bool     `yaml:"one_file_system"`
	Include        []string `yaml:"include"`
	IncludeFold    []string `yaml:"include_ci"`
	Exclude        []string `yaml:"exclude"`
	ExcludeFold    []string `yaml:"exclude_ci"`
	DirsInclude    int      `yaml:"dirs_include"`
	DirDepth       int      `yaml:"dir_depth"`
	LeafDirs       bool     `yaml:"leaf_dirs"`
	DirsOnly       bool     `yaml:"dirs_only"`

	Live         bool   `yaml:"live"`
	SplitOnError bool   `yaml:"split_on_error"`
	SkipBig      bool   `yaml:"skip_big"`
	AddParents   bool   `yaml:"add_parents"`
	PrePartHook  string `yaml:"pre_part_hook"`
	PostPartHook string `yaml:"post_part_hook"`
	PostRunHook  string `yaml:"post_run_hook"`

	PreloadSize  Size `yaml:"preload_size"`
	OverloadSize Size `yaml:"overload_size"`
	RoundSize    Size `yaml:"round_size"`
}

// Default returns the built-in defaults.
func Default() Options {
	return Options{
		DirDepth:  util.NoDirDepth,
		RoundSize: 1,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return opts, nil
}

// Normalize applies the settings implied by others: dirs-only implies leaf
// directories, and both imply empty directories.
func (o *Options) Normalize() {
	if o.DirsOnly {
		o.LeafDirs = true
	}
	if o.LeafDirs {
		o.DirsInclude = max(o.DirsInclude, util.DirsEmpty)
	}
}

// ToFile reports whether partitions are written to template files.
func (o Options) ToFile() bool {
	return o.Output != "" && o.Output != "-"
}

func (o Options) crawling() bool {
	return o.AddSlash || o.FollowSymlinks || o.OneFileSystem ||
		len(o.Include) > 0 || len(o.IncludeFold) > 0 ||
		len(o.Exclude) > 0 || len(o.ExcludeFold) > 0 ||
		o.DirsInclude != 0 || o.DirDepth != util.NoDirDepth ||
		o.LeafDirs || o.DirsOnly
}

// Validate checks the consistency of the options. Errors wrap
// ErrInvalidOptions.
func (o Options) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
	}

	if o.NumParts == 0 && o.MaxEntries == 0 && o.MaxSize == 0 {
		return invalid("please specify either -n, -f or -s")
	}
	if o.NumParts != 0 && (o.MaxEntries != 0 || o.MaxSize != 0 || o.Live) {
		return invalid("option -n is incompatible with options -f, -s and -L")
	}
	if o.ArbitraryValues && o.crawling() {
		return invalid("option -a is incompatible with crawling-related options")
	}
	if o.OutZero && !o.ToFile() {
		return invalid("option -0 is valid only when used with option -o")
	}
	if o.DirsInclude < util.DirsNone || o.DirsInclude > util.DirsAll {
		return invalid("directory inclusion level must be between %d and %d", util.DirsNone, util.DirsAll)
	}
	if o.DirDepth < util.NoDirDepth {
		return invalid("option -d requires a value of 0 or more")
	}
	if o.DirsOnly && o.DirDepth != util.NoDirDepth {
		return invalid("option -E is incompatible with option -d")
	}
	if !o.Live && (o.PrePartHook != "" || o.PostPartHook != "" || o.PostRunHook != "") {
		return invalid("hooks can only be used with option -L")
	}
	if o.SplitOnError && (!o.Live || o.DirsInclude < util.DirsUnreadable) {
		return invalid("option -Z requires options -L and -zz (or -zzz)")
	}
	if o.SkipBig && (!o.Live || o.MaxSize == 0) {
		return invalid("option -S can only be used with options -L and -s")
	}
	if o.AddParents && !o.Live {
		return invalid("option -P can only be used with option -L")
	}
	if o.MaxSize != 0 && o.PreloadSize >= o.MaxSize {
		return invalid("preload size (%d) must be lower than max size (%d)", o.PreloadSize, o.MaxSize)
	}
	if o.RoundSize < 1 {
		return invalid("round size must be 1 or more")
	}
	if o.Verbose < 0 {
		return invalid("verbosity cannot be negative")
	}
	return nil
}
