// Package job provides BuildJob, the record of one pass through the
// generation pipeline. A job tracks its stage, its workspace, the published
// artifact or the failure that stopped it, and keeps its own log history so
// the logs of a single build can be played back later.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// BuildJob represents a single build request from acceptance to a terminal stage
type BuildJob struct {
	// ID is the unique identifier for this job, also the workspace directory name
	ID uuid.UUID

	// Request metadata
	Payload     []byte
	ExistingJob string
	CreatedAt   time.Time

	// State management
	fsm finitestate.Machine

	// Logging with history tracking
	logger       *slog.Logger
	logCollector *loglater.LogCollector

	mu            sync.RWMutex
	app           *appconfig.AppConfig
	workspacePath string
	artifactPath  string
	downloadPath  string
	failure       *Failure
	finishedAt    time.Time
	cancelFunc    context.CancelFunc

	cancelRequested atomic.Bool
	done            chan struct{}
	doneOnce        sync.Once
}

// New creates a BuildJob in the Queued stage for the raw AppConfig payload.
func New(payload []byte, existingJob string, handler slog.Handler) (*BuildJob, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate job id: %w", err)
	}

	sm, err := finitestate.New(handler)
	if err != nil {
		return nil, fmt.Errorf("%s failed to create state machine: %w", id, err)
	}

	logCollector := loglater.NewLogCollector(handler)
	logger := slog.New(logCollector).With("id", id)

	j := &BuildJob{
		ID:           id,
		Payload:      payload,
		ExistingJob:  existingJob,
		CreatedAt:    time.Now(),
		fsm:          sm,
		logger:       logger,
		logCollector: logCollector,
		done:         make(chan struct{}),
	}

	if existingJob != "" {
		j.logger.Info("Job created", "existingJob", existingJob)
	} else {
		j.logger.Info("Job created")
	}
	return j, nil
}

// Logger returns the job's logger; records written to it are kept in the job history.
func (j *BuildJob) Logger() *slog.Logger {
	return j.logger
}

// GetState returns the current stage of the job
func (j *BuildJob) GetState() string {
	return j.fsm.GetState()
}

// GetStateChan returns a channel that receives the job stage on every change.
func (j *BuildJob) GetStateChan(ctx context.Context) <-chan string {
	return j.fsm.GetStateChan(ctx)
}

// IsTerminal reports whether the job reached Completed or Failed.
func (j *BuildJob) IsTerminal() bool {
	return finitestate.IsTerminal(j.GetState())
}

// Done returns a channel closed when the job reaches a terminal stage.
func (j *BuildJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done.
func (j *BuildJob) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Advance moves the job into the next pipeline stage.
func (j *BuildJob) Advance(stage string) error {
	if j.IsTerminal() {
		return ErrJobTerminal
	}
	if err := j.fsm.Transition(stage); err != nil {
		j.logger.Error("Failed to transition stage", "stage", stage, "error", err)
		return err
	}
	j.logger.Info("Stage started", "stage", stage)
	return nil
}

// MarkCompleted records the published artifact and moves the job to Completed.
func (j *BuildJob) MarkCompleted(artifactPath, downloadPath string) error {
	if err := j.fsm.Transition(finitestate.StageCompleted); err != nil {
		j.logger.Error("Failed to transition to completed stage", "error", err)
		return err
	}

	j.mu.Lock()
	j.artifactPath = artifactPath
	j.downloadPath = downloadPath
	j.finishedAt = time.Now()
	j.mu.Unlock()

	j.logger.Info(
		"Job completed",
		"artifact", artifactPath,
		"duration", j.GetTotalDuration(),
	)
	j.finish()
	return nil
}

// MarkFailed records err against the current stage and moves the job to Failed.
func (j *BuildJob) MarkFailed(err error) error {
	stage := j.GetState()
	if transErr := j.fsm.Transition(finitestate.StageFailed); transErr != nil {
		j.logger.Error("Failed to transition to failed stage",
			"error", transErr,
			"originalError", err)
		return transErr
	}

	// Only update state after successful transition
	j.mu.Lock()
	j.failure = &Failure{Stage: stage, Err: err}
	j.finishedAt = time.Now()
	j.mu.Unlock()

	j.logger.Error("Job failed", "stage", stage, "error", err)
	j.finish()
	return nil
}

func (j *BuildJob) finish() {
	j.doneOnce.Do(func() { close(j.done) })
}

// SetCancelFunc attaches the cancel function of the context the job runs under.
// When cancellation was requested before the job started, cancel is called at once.
func (j *BuildJob) SetCancelFunc(cancel context.CancelFunc) {
	j.mu.Lock()
	j.cancelFunc = cancel
	j.mu.Unlock()
	if j.cancelRequested.Load() && cancel != nil {
		cancel()
	}
}

// Cancel requests cancellation. A running job has its context cancelled, which
// kills the in-flight toolchain process. Returns false when the job already finished.
func (j *BuildJob) Cancel() bool {
	if j.IsTerminal() {
		return false
	}
	j.cancelRequested.Store(true)
	j.logger.Warn("Cancellation requested", "stage", j.GetState())

	j.mu.RLock()
	cancel := j.cancelFunc
	j.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return true
}

// CancelRequested reports whether Cancel was called.
func (j *BuildJob) CancelRequested() bool {
	return j.cancelRequested.Load()
}

// SetApp stores the validated AppConfig.
func (j *BuildJob) SetApp(app *appconfig.AppConfig) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.app = app
}

// App returns the validated AppConfig, or nil before validation.
func (j *BuildJob) App() *appconfig.AppConfig {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.app
}

// SetWorkspacePath records the job's workspace directory.
func (j *BuildJob) SetWorkspacePath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.workspacePath = path
}

// WorkspacePath returns the job's workspace directory.
func (j *BuildJob) WorkspacePath() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.workspacePath
}

// ArtifactPath returns the published artifact path once the job completed.
func (j *BuildJob) ArtifactPath() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.artifactPath
}

// DownloadPath returns the artifact path relative to the downloads directory.
func (j *BuildJob) DownloadPath() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.downloadPath
}

// Failure returns the failure detail, or nil when the job has not failed.
func (j *BuildJob) Failure() *Failure {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.failure
}

// FinishedAt returns when the job reached a terminal stage, or the zero time.
func (j *BuildJob) FinishedAt() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finishedAt
}

// PlaybackLogs plays back the job logs to the given handler
func (j *BuildJob) PlaybackLogs(handler slog.Handler) error {
	return j.logCollector.PlayLogs(handler)
}

// GetTotalDuration returns the run time of the job, up to its finish when terminal.
func (j *BuildJob) GetTotalDuration() time.Duration {
	if finished := j.FinishedAt(); !finished.IsZero() {
		return finished.Sub(j.CreatedAt)
	}
	return time.Since(j.CreatedAt)
}
