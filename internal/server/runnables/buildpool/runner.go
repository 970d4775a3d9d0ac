// Package buildpool runs build jobs on a fixed number of workers fed by a
// bounded queue. Submissions beyond the queue capacity fail fast.
package buildpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	lifecycle "github.com/atlanticdynamic/appforge/internal/server/finitestate"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/buildpool/jobstorage"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Defaults for the worker and queue sizes.
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 16
)

// Interface guards
var (
	_ supervisor.Runnable  = (*Runner)(nil)
	_ supervisor.Stateable = (*Runner)(nil)
)

// Runner is the build pool runnable.
type Runner struct {
	processor     Processor
	storage       *jobstorage.MemoryStorage
	queueObserver QueueObserver

	workers   int
	queueSize int
	queue     chan *job.BuildJob

	// State management
	fsm lifecycle.Machine

	// Context management
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger     *slog.Logger
	jobHandler slog.Handler
}

// NewRunner creates a build pool that runs jobs through processor.
func NewRunner(processor Processor, opts ...Option) (*Runner, error) {
	if processor == nil {
		return nil, errors.New("processor cannot be nil")
	}

	r := &Runner{
		processor:     processor,
		queueObserver: noopQueueObserver{},
		workers:       DefaultWorkers,
		queueSize:     DefaultQueueSize,
		logger:        slog.Default().WithGroup("buildpool.Runner"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if r.jobHandler == nil {
		r.jobHandler = r.logger.Handler()
	}
	if r.storage == nil {
		r.storage = jobstorage.NewMemoryStorage(jobstorage.WithLogger(r.logger.WithGroup("storage")))
	}
	r.queue = make(chan *job.BuildJob, r.queueSize)

	machine, err := lifecycle.New(r.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create FSM: %w", err)
	}
	r.fsm = machine

	return r, nil
}

// String returns the name of this runnable component.
func (r *Runner) String() string {
	return "buildpool.Runner"
}

// Run starts the workers and blocks until ctx is cancelled or Stop is called.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.logger.WithGroup("Run")

	if err := r.fsm.Transition(lifecycle.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting: %w", err)
	}

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	r.mu.Lock()
	r.ctx = runCtx
	r.cancel = runCancel
	r.mu.Unlock()

	for i := range r.workers {
		r.wg.Add(1)
		go r.worker(runCtx, i)
	}

	if err := r.fsm.Transition(lifecycle.StatusRunning); err != nil {
		runCancel()
		r.wg.Wait()
		lifecycle.Fail(r.fsm, logger, err)
		return fmt.Errorf("failed to transition to running: %w", err)
	}
	logger.Info("Build pool ready", "workers", r.workers, "queueSize", r.queueSize)

	<-runCtx.Done()
	return r.shutdown()
}

// Stop signals the build pool to stop. Running jobs are cancelled.
func (r *Runner) Stop() {
	r.logger.Debug("Stop called")
	r.mu.RLock()
	cancel := r.cancel
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) shutdown() error {
	logger := r.logger.WithGroup("shutdown")

	if err := r.fsm.Transition(lifecycle.StatusStopping); err != nil {
		logger.Error("Failed to transition to stopping", "error", err)
	}

	// Running jobs see the cancelled context and fail as cancelled.
	r.wg.Wait()

	// Anything still queued never started.
	for drained := false; !drained; {
		select {
		case j := <-r.queue:
			if err := j.MarkFailed(fmt.Errorf("%w: pool shut down", job.ErrCancelled)); err != nil {
				logger.Debug("Queued job already finished", "id", j.ID, "error", err)
			}
		default:
			drained = true
		}
	}
	r.queueObserver.SetQueueDepth(0)

	// Workers are gone, so whatever a processor left unfinished never will be.
	for _, j := range r.storage.Active() {
		if err := j.MarkFailed(fmt.Errorf("%w: pool shut down", job.ErrCancelled)); err != nil {
			logger.Debug("Unfinished job could not be failed", "id", j.ID, "error", err)
		}
	}

	if err := r.fsm.Transition(lifecycle.StatusStopped); err != nil {
		logger.Error("Failed to transition to stopped", "error", err)
	}
	logger.Info("Build pool stopped")
	return nil
}

func (r *Runner) worker(ctx context.Context, n int) {
	defer r.wg.Done()
	logger := r.logger.With("worker", n)

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-r.queue:
			r.queueObserver.SetQueueDepth(len(r.queue))
			r.runJob(ctx, logger, j)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, logger *slog.Logger, j *job.BuildJob) {
	if j.IsTerminal() {
		logger.Debug("Skipping finished job", "id", j.ID, "stage", j.GetState())
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.SetCancelFunc(cancel)

	logger.Debug("Running job", "id", j.ID)
	if err := r.processor.Run(jobCtx, j); err != nil {
		logger.Debug("Job did not complete", "id", j.ID, "error", err)
	}
	r.storage.Trim()
}

// Submit queues a build of payload and returns the job without waiting.
// It fails with ErrQueueFull when no queue slot is free.
func (r *Runner) Submit(payload []byte, existingJob string) (*job.BuildJob, error) {
	if !r.IsRunning() {
		return nil, ErrNotRunning
	}

	j, err := job.New(payload, existingJob, r.jobHandler)
	if err != nil {
		return nil, err
	}

	select {
	case r.queue <- j:
	default:
		r.queueObserver.QueueRejected()
		r.logger.Warn("Rejected job, queue full", "id", j.ID, "queueSize", r.queueSize)
		return nil, fmt.Errorf("%w (%d jobs waiting)", ErrQueueFull, r.queueSize)
	}

	if err := r.storage.Add(j); err != nil {
		return nil, err
	}
	r.queueObserver.SetQueueDepth(len(r.queue))
	r.logger.Info("Job queued", "id", j.ID)
	return j, nil
}

// SubmitAndWait queues a build of payload and blocks until it finishes. If
// ctx ends first the job is cancelled and ctx's error is returned with it.
func (r *Runner) SubmitAndWait(ctx context.Context, payload []byte, existingJob string) (*job.BuildJob, error) {
	j, err := r.Submit(payload, existingJob)
	if err != nil {
		return nil, err
	}
	if err := j.Wait(ctx); err != nil {
		j.Cancel()
		return j, err
	}
	return j, nil
}

// Get returns the job with id, or ErrJobNotFound.
func (r *Runner) Get(id string) (*job.BuildJob, error) {
	j := r.storage.GetByID(id)
	if j == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j, nil
}

// List returns every known job, oldest first.
func (r *Runner) List() []*job.BuildJob {
	return r.storage.GetAll()
}

// Cancel cancels the job with id. A queued job fails at once; a running job
// has its in-flight process killed and fails when the pipeline unwinds.
func (r *Runner) Cancel(id string) (*job.BuildJob, error) {
	j, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if !j.Cancel() {
		return j, fmt.Errorf("%w: %s is %s", ErrJobFinished, id, j.GetState())
	}
	if j.GetState() == finitestate.StageQueued {
		if err := j.MarkFailed(fmt.Errorf("%w while queued", job.ErrCancelled)); err != nil {
			r.logger.Debug("Queued job started before it could be failed", "id", id, "error", err)
		}
	}
	r.logger.Info("Job cancelled", "id", id)
	return j, nil
}

// IsActive reports whether the job with id is queued or running.
func (r *Runner) IsActive(id uuid.UUID) bool {
	j := r.storage.GetByID(id.String())
	return j != nil && !j.IsTerminal()
}

// GetState returns the lifecycle state of the pool.
func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

// GetStateChan returns a channel that emits the pool's lifecycle state changes.
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}

// IsRunning reports whether the pool accepts jobs.
func (r *Runner) IsRunning() bool {
	return lifecycle.IsRunning(r.fsm)
}
