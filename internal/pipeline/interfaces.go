package pipeline

import (
	"context"
	"time"

	"github.com/atlanticdynamic/appforge/internal/appconfig"
	"github.com/atlanticdynamic/appforge/internal/rewrite"
	"github.com/atlanticdynamic/appforge/internal/toolchain"
	"github.com/gofrs/uuid/v5"
)

// Workspaces creates the isolated directory a job works in.
type Workspaces interface {
	Create(id uuid.UUID) (string, error)
}

// Materializer copies the template project into a workspace.
type Materializer interface {
	Materialize(ctx context.Context, workspace string) error
}

// Rewriter rewrites the identity-bearing files of a workspace.
type Rewriter interface {
	Rewrite(ctx context.Context, workspace string, id rewrite.Identity) error
}

// Injector writes the app's pages and settings into a workspace.
type Injector interface {
	Inject(ctx context.Context, workspace string, app *appconfig.AppConfig) error
}

// Builder runs the native toolchain and returns where the artifact was produced.
type Builder interface {
	Build(ctx context.Context, workspace string) (string, error)
}

// Publisher copies a built artifact to its job-id-addressed download location.
type Publisher interface {
	Publish(ctx context.Context, artifact string, jobID uuid.UUID) (string, error)
}

// Observer is told about job progress, for metrics.
type Observer interface {
	JobStarted()
	StageFinished(stage string, elapsed time.Duration)
	BuildStepFinished(step toolchain.Step, elapsed time.Duration, err error)
	JobFinished(stage, failedStage string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) JobStarted() {}

func (noopObserver) StageFinished(string, time.Duration) {}

func (noopObserver) BuildStepFinished(toolchain.Step, time.Duration, error) {}

func (noopObserver) JobFinished(string, string, time.Duration) {}
