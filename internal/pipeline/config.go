package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/appforge/internal/config"
	"github.com/atlanticdynamic/appforge/internal/content"
	"github.com/atlanticdynamic/appforge/internal/publish"
	"github.com/atlanticdynamic/appforge/internal/rewrite"
	"github.com/atlanticdynamic/appforge/internal/template"
	"github.com/atlanticdynamic/appforge/internal/toolchain"
	"github.com/atlanticdynamic/appforge/internal/workspace"
)

// FromConfig assembles a Pipeline with the stock components described by
// cfg. The template is verified here, so a corrupt template fails startup.
// Component logs go to handler; a nil handler uses the default logger. A
// nil observer disables progress reporting.
func FromConfig(cfg *config.Config, handler slog.Handler, observer Observer) (*Pipeline, error) {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if observer == nil {
		observer = noopObserver{}
	}

	source, err := template.NewSource(cfg.Paths.TemplateDir)
	if err != nil {
		return nil, err
	}

	workspaces, err := workspace.NewManager(cfg.Paths.WorkspaceRoot,
		workspace.WithLogger(slog.New(handler).WithGroup("workspace.Manager")))
	if err != nil {
		return nil, err
	}

	rewriter, err := rewrite.New(
		rewrite.Identity{
			DisplayName: cfg.Template.DisplayName,
			PackageName: cfg.Template.PackageName,
			Identifier:  cfg.Template.Identifier,
			Version:     cfg.Template.Version,
		},
		rewrite.WithLogger(slog.New(handler).WithGroup("rewrite.Rewriter")),
		rewrite.WithVersionPins(cfg.Toolchain.CompileSdkVersion, cfg.Toolchain.NdkVersion),
		rewrite.WithCredentialsDir(cfg.Paths.CredentialsDir),
	)
	if err != nil {
		return nil, err
	}

	publisher, err := publish.NewPublisher(cfg.Paths.DownloadsDir,
		publish.WithLogger(slog.New(handler).WithGroup("publish.Publisher")))
	if err != nil {
		return nil, err
	}

	builder := toolchain.NewOrchestrator(
		toolchain.NewExecRunner(cfg.Toolchain.Env),
		toolchain.WithLogger(slog.New(handler).WithGroup("toolchain.Orchestrator")),
		toolchain.WithCommands(cfg.Toolchain.Clean, cfg.Toolchain.Dependencies, cfg.Toolchain.Package),
		toolchain.WithStepTimeout(cfg.Toolchain.StepTimeout.AsDuration()),
		toolchain.WithArtifactPath(cfg.Toolchain.ArtifactPath),
		toolchain.WithStepObserver(observer.BuildStepFinished),
	)

	materializer := template.NewMaterializer(source,
		template.WithLogger(slog.New(handler).WithGroup("template.Materializer")))
	injector := content.NewInjector(
		content.WithLogger(slog.New(handler).WithGroup("content.Injector")))

	p, err := New(Stages{
		Workspaces:   workspaces,
		Materializer: materializer,
		Rewriter:     rewriter,
		Injector:     injector,
		Builder:      builder,
		Publisher:    publisher,
	}, WithLogHandler(handler), WithObserver(observer))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble pipeline: %w", err)
	}
	return p, nil
}
