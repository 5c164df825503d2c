package runtime

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Closer is a named resource released during shutdown.
type Closer struct {
	Name  string
	Close func(context.Context) error
}

// Shutdown releases closers in reverse order within timeout, logging failures.
func Shutdown(logger *slog.Logger, timeout time.Duration, closers ...Closer) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if c.Close == nil {
			continue
		}
		if err := c.Close(ctx); err != nil {
			logger.Error("shutdown failed", "resource", c.Name, "err", err)
		}
	}
}
