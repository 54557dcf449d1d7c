package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// terminator is a handle on a running hook.
type terminator interface {
	Running() (int, bool)
	Terminate(sig unix.Signal) error
}

// watchSignals cancels the run on SIGTERM, SIGINT or SIGHUP, after sending
// SIGTERM to the process group of the running hook, if any. The returned
// function stops watching.
func watchSignals(cancel context.CancelFunc, hooks terminator, log zerolog.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGTERM, unix.SIGINT, unix.SIGHUP)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			if hooks != nil {
				if pid, ok := hooks.Running(); ok {
					log.Info().Int("pid", pid).Msg("terminating hook")
					if err := hooks.Terminate(unix.SIGTERM); err != nil {
						log.Error().Err(err).Int("pid", pid).Msg("cannot terminate hook")
					}
				}
			}
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
