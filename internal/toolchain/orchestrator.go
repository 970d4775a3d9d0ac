package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Step names one phase of a native build.
type Step string

const (
	StepClean        Step = "clean"
	StepDependencies Step = "dependencies"
	StepPackage      Step = "package"
)

// Command binds a step to the argv that performs it.
type Command struct {
	Step Step
	Argv []string
}

// Defaults used when no options override them.
var (
	DefaultCommands = []Command{
		{Step: StepClean, Argv: []string{"flutter", "clean"}},
		{Step: StepDependencies, Argv: []string{"flutter", "pub", "get"}},
		{Step: StepPackage, Argv: []string{"flutter", "build", "apk", "--release"}},
	}
	DefaultArtifactPath = "build/app/outputs/flutter-apk/app-release.apk"
	DefaultStepTimeout  = 20 * time.Minute
)

// StepObserver is told how each step that ran ended.
type StepObserver func(step Step, elapsed time.Duration, err error)

// Orchestrator runs the build steps of one workspace in order, stopping at
// the first failure. It is safe for concurrent use across workspaces.
type Orchestrator struct {
	runner       Runner
	commands     []Command
	stepTimeout  time.Duration
	artifactPath string
	observer     StepObserver
	logger       *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithLogHandler sets the log handler
func WithLogHandler(handler slog.Handler) Option {
	return func(o *Orchestrator) {
		o.logger = slog.New(handler)
	}
}

// WithCommands sets the clean, dependency and package commands
func WithCommands(clean, dependencies, pkg []string) Option {
	return func(o *Orchestrator) {
		o.commands = []Command{
			{Step: StepClean, Argv: clean},
			{Step: StepDependencies, Argv: dependencies},
			{Step: StepPackage, Argv: pkg},
		}
	}
}

// WithStepTimeout sets the timeout applied to each step separately
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stepTimeout = d
		}
	}
}

// WithArtifactPath sets the workspace-relative path of the build output
func WithArtifactPath(rel string) Option {
	return func(o *Orchestrator) {
		if rel != "" {
			o.artifactPath = rel
		}
	}
}

// WithStepObserver registers a callback invoked after every step
func WithStepObserver(fn StepObserver) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// NewOrchestrator creates an Orchestrator that runs commands through runner
func NewOrchestrator(runner Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:       runner,
		commands:     DefaultCommands,
		stepTimeout:  DefaultStepTimeout,
		artifactPath: DefaultArtifactPath,
		logger:       slog.Default().WithGroup("toolchain.Orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ArtifactPath returns the workspace-relative path the package step produces.
func (o *Orchestrator) ArtifactPath() string {
	return o.artifactPath
}

// Build runs every step in workspace and returns where the artifact is
// expected. The first failing step yields a *BuildError and no later step
// runs. If ctx is cancelled the running process is killed and the error
// matches ErrCancelled.
func (o *Orchestrator) Build(ctx context.Context, workspace string) (string, error) {
	for _, cmd := range o.commands {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: before step %s", ErrCancelled, cmd.Step)
		}
		if err := o.runStep(ctx, workspace, cmd); err != nil {
			return "", err
		}
	}
	return filepath.Join(workspace, filepath.FromSlash(o.artifactPath)), nil
}

func (o *Orchestrator) runStep(ctx context.Context, workspace string, cmd Command) (err error) {
	logger := o.logger.With("step", cmd.Step)
	logger.Info("Build step starting", "argv", cmd.Argv)

	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if o.observer != nil {
			o.observer(cmd.Step, elapsed, err)
		}
		if err != nil {
			logger.Warn("Build step failed", "elapsed", elapsed, "error", err)
			return
		}
		logger.Info("Build step finished", "elapsed", elapsed)
	}()

	stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	res, runErr := o.runner.Run(stepCtx, workspace, cmd.Argv)
	switch {
	case runErr == nil && res.ExitCode == 0:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%w: during step %s", ErrCancelled, cmd.Step)
	case errors.Is(runErr, context.DeadlineExceeded) || stepCtx.Err() != nil:
		return &BuildError{Step: cmd.Step, ExitCode: res.ExitCode, Output: res.Output,
			Err: fmt.Errorf("%w after %s", ErrStepTimeout, o.stepTimeout)}
	case runErr != nil:
		return &BuildError{Step: cmd.Step, ExitCode: res.ExitCode, Output: res.Output, Err: runErr}
	default:
		return &BuildError{Step: cmd.Step, ExitCode: res.ExitCode, Output: res.Output}
	}
}
