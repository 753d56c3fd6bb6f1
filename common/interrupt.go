package common

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT}

// Interrupted returns a channel receiving the usual termination signals.
func Interrupted() <-chan os.Signal {
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt, terminationSignals...)
	return interrupt
}

// InterruptibleContext returns a context that is canceled on the first
// termination signal. A long-running enrichment uses this to abort
// cleanly when the user hits ^C.
func InterruptibleContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, terminationSignals...)
	go func() {
		defer signal.Stop(interrupt)
		select {
		case sig := <-interrupt:
			slog.Warn("Received signal, canceling", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
