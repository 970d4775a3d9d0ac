package buildpool

import (
	"log/slog"

	"github.com/atlanticdynamic/appforge/internal/server/runnables/buildpool/jobstorage"
)

// Option represents a functional option for configuring Runner.
type Option func(*Runner) error

// WithLogHandler sets a custom slog handler for the Runner instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Runner) error {
		if handler != nil {
			r.logger = slog.New(handler).WithGroup("buildpool.Runner")
		}
		return nil
	}
}

// WithLogger sets a logger for the Runner instance.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// WithJobLogHandler sets the handler each job's own logger writes through.
func WithJobLogHandler(handler slog.Handler) Option {
	return func(r *Runner) error {
		if handler != nil {
			r.jobHandler = handler
		}
		return nil
	}
}

// WithWorkers sets how many jobs may run at once.
func WithWorkers(n int) Option {
	return func(r *Runner) error {
		if n > 0 {
			r.workers = n
		}
		return nil
	}
}

// WithQueueSize sets how many jobs may wait for a worker.
func WithQueueSize(n int) Option {
	return func(r *Runner) error {
		if n >= 0 {
			r.queueSize = n
		}
		return nil
	}
}

// WithStorage replaces the job storage.
func WithStorage(s *jobstorage.MemoryStorage) Option {
	return func(r *Runner) error {
		if s != nil {
			r.storage = s
		}
		return nil
	}
}

// WithQueueObserver reports queue depth and rejections to o.
func WithQueueObserver(o QueueObserver) Option {
	return func(r *Runner) error {
		if o != nil {
			r.queueObserver = o
		}
		return nil
	}
}
