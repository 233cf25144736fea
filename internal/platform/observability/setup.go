package observability

import (
	"context"
	"log/slog"
	"sync"
)

// Config toggles instrumentation. Exporter settings can grow here once an
// external backend is attached.
type Config struct {
	Enabled bool
}

// ShutdownFunc tears down any exporters set up during Setup.
type ShutdownFunc func(context.Context) error

var (
	mu    sync.RWMutex
	log   *slog.Logger
	state Config
)

func current() (*slog.Logger, Config) {
	mu.RLock()
	defer mu.RUnlock()
	return log, state
}

// Setup installs the instrumentation sinks. Spans and metrics are emitted
// through the structured logger; there is no external exporter yet.
func Setup(ctx context.Context, cfg Config, logger *slog.Logger) (ShutdownFunc, error) {
	mu.Lock()
	log = logger
	state = cfg
	mu.Unlock()

	if logger != nil {
		if cfg.Enabled {
			logger.InfoContext(ctx, "observability enabled")
		} else {
			logger.InfoContext(ctx, "observability disabled")
		}
	}

	return func(context.Context) error {
		mu.Lock()
		log = nil
		state = Config{}
		mu.Unlock()
		return nil
	}, nil
}
