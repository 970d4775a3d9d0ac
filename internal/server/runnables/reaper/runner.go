// Package reaper deletes job workspaces and published artifacts once they
// are older than the retention age. Sweeps run on a cron schedule and never
// touch a job that is still queued or running.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lifecycle "github.com/atlanticdynamic/appforge/internal/server/finitestate"
	"github.com/atlanticdynamic/appforge/internal/workspace"
	"github.com/gofrs/uuid/v5"
	"github.com/robfig/cron/v3"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Interface guards
var (
	_ supervisor.Runnable  = (*Runner)(nil)
	_ supervisor.Stateable = (*Runner)(nil)
)

// Runner is the retention sweeper runnable.
type Runner struct {
	schedule cron.Schedule
	spec     string
	maxAge   time.Duration
	dirs     []string
	isActive func(uuid.UUID) bool
	now      func() time.Time

	fsm lifecycle.Machine

	mu     sync.Mutex
	cancel context.CancelFunc

	logger *slog.Logger
}

// Option represents a functional option for configuring Runner.
type Option func(*Runner)

// WithLogHandler sets a custom slog handler for the Runner instance.
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Runner) {
		if handler != nil {
			r.logger = slog.New(handler).WithGroup("reaper.Runner")
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

// WithActiveCheck sets the function that reports jobs which must be kept.
func WithActiveCheck(fn func(uuid.UUID) bool) Option {
	return func(r *Runner) {
		if fn != nil {
			r.isActive = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a sweeper that runs on the standard cron spec and
// removes job directories under dirs older than maxAge.
func NewRunner(spec string, maxAge time.Duration, dirs []string, opts ...Option) (*Runner, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	if maxAge <= 0 {
		return nil, errors.New("retention max age must be positive")
	}
	if len(dirs) == 0 {
		return nil, errors.New("at least one directory is required")
	}

	r := &Runner{
		schedule: schedule,
		spec:     spec,
		maxAge:   maxAge,
		dirs:     dirs,
		isActive: func(uuid.UUID) bool { return false },
		now:      time.Now,
		logger:   slog.Default().WithGroup("reaper.Runner"),
	}
	for _, opt := range opts {
		opt(r)
	}

	machine, err := lifecycle.New(r.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create FSM: %w", err)
	}
	r.fsm = machine
	return r, nil
}

// String returns the name of this runnable component.
func (r *Runner) String() string {
	return "reaper.Runner"
}

// Sweep removes expired job directories once and returns how many it removed.
func (r *Runner) Sweep() (int, error) {
	cutoff := r.now().Add(-r.maxAge)
	removed := 0
	var errs []error
	for _, dir := range r.dirs {
		ids, err := workspace.Prune(dir, cutoff, r.isActive)
		removed += len(ids)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweeping %s: %w", dir, err))
		}
	}
	return removed, errors.Join(errs...)
}

// Run schedules sweeps and blocks until ctx is cancelled or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.fsm.Transition(lifecycle.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting: %w", err)
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	r.mu.Lock()
	r.cancel = runCancel
	r.mu.Unlock()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(r.schedule, cron.FuncJob(r.sweepAndLog))
	c.Start()

	if err := r.fsm.Transition(lifecycle.StatusRunning); err != nil {
		<-c.Stop().Done()
		lifecycle.Fail(r.fsm, r.logger, err)
		return fmt.Errorf("failed to transition to running: %w", err)
	}
	r.logger.Info("Retention sweeper scheduled", "schedule", r.spec, "maxAge", r.maxAge, "dirs", r.dirs)

	<-runCtx.Done()

	if err := r.fsm.Transition(lifecycle.StatusStopping); err != nil {
		r.logger.Error("Failed to transition to stopping", "error", err)
	}
	// Wait for a sweep in progress to finish.
	<-c.Stop().Done()
	if err := r.fsm.Transition(lifecycle.StatusStopped); err != nil {
		r.logger.Error("Failed to transition to stopped", "error", err)
	}
	return nil
}

func (r *Runner) sweepAndLog() {
	start := time.Now()
	removed, err := r.Sweep()
	if err != nil {
		r.logger.Error("Retention sweep failed", "removed", removed, "error", err)
		return
	}
	r.logger.Info("Retention sweep finished", "removed", removed, "elapsed", time.Since(start))
}

// Stop signals the sweeper to stop.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetState returns the lifecycle state of the sweeper.
func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

// GetStateChan returns a channel that emits the sweeper's lifecycle state changes.
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}

// IsRunning reports whether sweeps are scheduled.
func (r *Runner) IsRunning() bool {
	return lifecycle.IsRunning(r.fsm)
}
