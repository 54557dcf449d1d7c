//go:build unix

package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DefaultShell runs hook command lines.
const DefaultShell = "/bin/sh"

// Runner executes hooks one at a time.
// Run is meant to be called from a single goroutine; Running and Terminate
// may be called concurrently, typically from a signal handler goroutine.
type Runner struct {
	shell  string
	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger

	mu    sync.Mutex
	child *os.Process
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell replaces the shell used to interpret hook commands.
func WithShell(path string) Option {
	return func(r *Runner) { r.shell = path }
}

// WithOutput sets where hook output goes. Hooks share fpart's stdout and
// stderr by default.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger used to trace hook executions.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner returns a Runner using /bin/sh.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		shell:  DefaultShell,
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command with env exported and waits for it to exit.
// A non-zero exit status or an abnormal termination returns an error
// wrapping ErrHookFailed. If ctx is cancelled first, the hook's process group
// receives SIGTERM, Run waits for the hook and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, command string, env Env) error {
	event := r.log.Info().Str("hook", env.Kind.String())
	if env.Kind != PostRun {
		event = event.Int("part", env.PartNumber)
	}
	event.Str("command", command).Msg("executing hook")

	cmd := exec.Command(r.shell, "-c", command)
	cmd.Env = append(os.Environ(), env.Vars()...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: starting %q: %w", ErrHookFailed, command, err)
	}
	r.setChild(cmd.Process)
	defer r.setChild(nil)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return r.result(command, err)
	case <-ctx.Done():
		if err := killGroup(cmd.Process.Pid, unix.SIGTERM); err != nil {
			r.log.Warn().Err(err).Int("pid", cmd.Process.Pid).Msg("cannot terminate hook")
		}
		<-done
		return ctx.Err()
	}
}

func (r *Runner) result(command string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Exited() {
			r.log.Info().Str("command", command).Int("status", exitErr.ExitCode()).Msg("hook exited with error")
			return fmt.Errorf("%w: %q exited with status %d", ErrHookFailed, command, exitErr.ExitCode())
		}
		r.log.Info().Str("command", command).Msg("hook terminated prematurely")
		return fmt.Errorf("%w: %q terminated prematurely: %w", ErrHookFailed, command, err)
	}
	return fmt.Errorf("%w: waiting for %q: %w", ErrHookFailed, command, err)
}

func (r *Runner) setChild(p *os.Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.child = p
}

// Running returns the pid of the hook being executed, if any. The pid is
// also the id of the hook's process group.
func (r *Runner) Running() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.child == nil {
		return 0, false
	}
	return r.child.Pid, true
}

// Terminate sends sig to the process group of the running hook.
// It returns ErrNoChild when no hook is running.
func (r *Runner) Terminate(sig unix.Signal) error {
	pid, ok := r.Running()
	if !ok {
		return ErrNoChild
	}
	return killGroup(pid, sig)
}

func killGroup(pgid int, sig unix.Signal) error {
	if pgid <= 1 {
		return ErrNoChild
	}
	if err := unix.Kill(-pgid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signalling process group %d: %w", pgid, err)
	}
	return nil
}
