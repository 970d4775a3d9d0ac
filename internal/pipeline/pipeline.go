// Package pipeline drives a BuildJob through every generation stage:
// validation, workspace materialization, identity rewriting, content
// injection, the native build and artifact publishing. Each job runs its
// stages strictly in order; the first failing stage ends the job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/job/finitestate"
	"github.com/atlanticdynamic/appforge/internal/publish"
	"github.com/atlanticdynamic/appforge/internal/rewrite"
)

// Stages holds the components that implement each pipeline stage.
type Stages struct {
	Workspaces   Workspaces
	Materializer Materializer
	Rewriter     Rewriter
	Injector     Injector
	Builder      Builder
	Publisher    Publisher
}

func (s Stages) validate() error {
	var errs []error
	if s.Workspaces == nil {
		errs = append(errs, errors.New("workspaces cannot be nil"))
	}
	if s.Materializer == nil {
		errs = append(errs, errors.New("materializer cannot be nil"))
	}
	if s.Rewriter == nil {
		errs = append(errs, errors.New("rewriter cannot be nil"))
	}
	if s.Injector == nil {
		errs = append(errs, errors.New("injector cannot be nil"))
	}
	if s.Builder == nil {
		errs = append(errs, errors.New("builder cannot be nil"))
	}
	if s.Publisher == nil {
		errs = append(errs, errors.New("publisher cannot be nil"))
	}
	return errors.Join(errs...)
}

// Pipeline runs jobs. It keeps no per-job state and may run many jobs at once.
type Pipeline struct {
	stages   Stages
	observer Observer
	logger   *slog.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(p *Pipeline) {
		if handler != nil {
			p.logger = slog.New(handler).WithGroup("pipeline.Pipeline")
		}
	}
}

// WithObserver reports job progress to o
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// New creates a Pipeline from its stage components
func New(stages Stages, opts ...Option) (*Pipeline, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{
		stages:   stages,
		observer: noopObserver{},
		logger:   slog.Default().WithGroup("pipeline.Pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run drives j from Queued to Completed or Failed. It returns nil when the
// job completed and the job's *job.Failure otherwise. Cancelling ctx kills
// whatever the job is doing and fails it as cancelled.
func (p *Pipeline) Run(ctx context.Context, j *job.BuildJob) error {
	p.observer.JobStarted()
	defer func() {
		failedStage := ""
		if f := j.Failure(); f != nil {
			failedStage = f.Stage
		}
		p.observer.JobFinished(j.GetState(), failedStage, j.GetTotalDuration())
	}()

	logger := j.Logger()
	var (
		app       *appconfig.AppConfig
		workspace string
		built     string
		published string
	)

	steps := []struct {
		stage string
		run   func(ctx context.Context) error
	}{
		{finitestate.StageValidating, func(context.Context) error {
			var err error
			app, err = appconfig.Validate(j.Payload)
			if err != nil {
				return err
			}
			j.SetApp(app)
			logger.Info("Config valid",
				"appName", app.AppName, "identifier", app.Identifier, "pages", len(app.Pages))
			return nil
		}},
		{finitestate.StageMaterializing, func(ctx context.Context) error {
			var err error
			workspace, err = p.stages.Workspaces.Create(j.ID)
			if err != nil {
				return err
			}
			j.SetWorkspacePath(workspace)
			return p.stages.Materializer.Materialize(ctx, workspace)
		}},
		{finitestate.StageRewriting, func(ctx context.Context) error {
			return p.stages.Rewriter.Rewrite(ctx, workspace, rewrite.IdentityFor(app))
		}},
		{finitestate.StageInjecting, func(ctx context.Context) error {
			return p.stages.Injector.Inject(ctx, workspace, app)
		}},
		{finitestate.StageBuilding, func(ctx context.Context) error {
			var err error
			built, err = p.stages.Builder.Build(ctx, workspace)
			return err
		}},
		{finitestate.StagePublishing, func(ctx context.Context) error {
			var err error
			published, err = p.stages.Publisher.Publish(ctx, built, j.ID)
			return err
		}},
	}

	for _, step := range steps {
		if j.CancelRequested() || ctx.Err() != nil {
			return p.fail(j, fmt.Errorf("%w before %s", job.ErrCancelled, step.stage))
		}
		if err := j.Advance(step.stage); err != nil {
			return fmt.Errorf("job %s: %w", j.ID, err)
		}

		start := time.Now()
		err := step.run(ctx)
		if err != nil {
			if ctx.Err() != nil && !errors.Is(err, job.ErrCancelled) {
				err = fmt.Errorf("%w: %w", job.ErrCancelled, err)
			}
			return p.fail(j, err)
		}
		p.observer.StageFinished(step.stage, time.Since(start))
	}

	if err := j.MarkCompleted(published, publish.DownloadPath(j.ID, published)); err != nil {
		return fmt.Errorf("job %s: %w", j.ID, err)
	}
	p.logger.Info("Job completed", "id", j.ID, "artifact", published, "duration", j.GetTotalDuration())
	return nil
}

func (p *Pipeline) fail(j *job.BuildJob, err error) error {
	if markErr := j.MarkFailed(err); markErr != nil {
		return errors.Join(err, markErr)
	}
	f := j.Failure()
	p.logger.Warn("Job failed",
		"id", j.ID, "stage", f.Stage, "workspace", j.WorkspacePath(), "error", err)
	return f
}
