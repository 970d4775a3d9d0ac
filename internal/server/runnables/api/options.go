package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Option represents a functional option for configuring Runner.
type Option func(*Runner)

// WithLogHandler sets a custom slog handler for the Runner instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Runner) {
		if handler != nil {
			r.logger = slog.New(handler).WithGroup("api.Runner")
		}
	}
}

// WithLogger sets a logger for the Runner instance.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithListenAddr sets the address the API listens on.
func WithListenAddr(addr string) Option {
	return func(r *Runner) {
		if addr != "" {
			r.listenAddr = addr
		}
	}
}

// WithDrainTimeout sets how long in-flight requests may run during shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.drainTimeout = d
		}
	}
}

// WithMaxBodyBytes caps the size of an AppConfig request body.
func WithMaxBodyBytes(n int64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxBodyBytes = n
		}
	}
}

// WithMetrics serves metricsHandler at /metrics and wraps every route with instrument.
func WithMetrics(metricsHandler http.Handler, instrument func(http.Handler) http.Handler) Option {
	return func(r *Runner) {
		r.metricsHandler = metricsHandler
		r.instrument = instrument
	}
}
