// Package hook runs the user commands fpart triggers around live partitions.
//
// A hook is a shell command line executed through /bin/sh -c. It inherits
// the fpart environment plus FPART_* variables describing the partition that
// is starting (pre-part), the partition that just closed (post-part) or the
// whole run (post-run). Hooks run synchronously and without timeout: the
// caller blocks until the command exits.
//
// Every hook leads its own process group so that it can be torn down with
// all of its children. Runner.Running exposes the current child and
// Runner.Terminate signals its whole group; cancelling the context given to
// Runner.Run does the same with SIGTERM.
//
// The package targets unix systems only.
package hook
