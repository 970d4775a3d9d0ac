package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/appforge/internal/config"
	"github.com/atlanticdynamic/appforge/internal/metrics"
	"github.com/atlanticdynamic/appforge/internal/pipeline"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/api"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/buildpool"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/buildpool/jobstorage"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/reaper"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/urfave/cli/v3"
)

var serverCmd = &cli.Command{
	Name:  "server",
	Usage: "Start the appforge HTTP service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlagName,
			Usage:   "Path to TOML configuration file",
			Aliases: []string{"c"},
			Sources: cli.EnvVars("APPFORGE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "Address for the HTTP API, overrides http.listen",
			Aliases: []string{"l"},
		},
		&cli.BoolFlag{
			Name:  "no-metrics",
			Usage: "Do not serve Prometheus metrics on /metrics",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String(configFlagName))
		if err != nil {
			return cli.Exit(err, 1)
		}
		if listen := cmd.String("listen"); listen != "" {
			cfg.HTTP.Listen = listen
		}

		handler, err := setupLogger(cfg, cmd.Root().String("log-level"))
		if err != nil {
			return cli.Exit(err, 1)
		}

		runnables, err := buildRunnables(cfg, handler, !cmd.Bool("no-metrics"))
		if err != nil {
			return cli.Exit(err, 1)
		}

		super, err := supervisor.New(
			supervisor.WithRunnables(runnables...),
			supervisor.WithLogHandler(handler),
			supervisor.WithContext(ctx),
		)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create supervisor: %w", err), 1)
		}
		if err := super.Run(); err != nil {
			return cli.Exit(fmt.Errorf("failed to run server: %w", err), 1)
		}

		slog.Info("Server shutdown complete")
		return nil
	},
}

// buildRunnables wires the build pool, the HTTP API and the retention sweeper
// from cfg. Order matters: the pool must accept jobs before the API does.
func buildRunnables(cfg *config.Config, handler slog.Handler, withMetrics bool) ([]supervisor.Runnable, error) {
	logger := slog.New(handler)
	collector := metrics.NewCollector(metrics.DefaultNamespace)

	p, err := pipeline.FromConfig(cfg, handler, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	storage := jobstorage.NewMemoryStorage(
		jobstorage.WithMaxHistory(cfg.Pool.HistorySize),
		jobstorage.WithLogger(logger.With("component", "jobstorage")),
	)
	pool, err := buildpool.NewRunner(p,
		buildpool.WithLogger(logger.With("component", "buildpool")),
		buildpool.WithJobLogHandler(handler),
		buildpool.WithWorkers(cfg.Pool.MaxConcurrentJobs),
		buildpool.WithQueueSize(cfg.Pool.QueueSize),
		buildpool.WithStorage(storage),
		buildpool.WithQueueObserver(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create build pool: %w", err)
	}

	apiOpts := []api.Option{
		api.WithLogger(logger.With("component", "api")),
		api.WithListenAddr(cfg.HTTP.Listen),
		api.WithDrainTimeout(cfg.HTTP.DrainTimeout.AsDuration()),
	}
	if withMetrics {
		apiOpts = append(apiOpts, api.WithMetrics(collector.Handler(), collector.InstrumentHandler))
	}
	apiRunner, err := api.NewRunner(pool, cfg.Paths.DownloadsDir, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API: %w", err)
	}

	runnables := []supervisor.Runnable{pool, apiRunner}

	if !cfg.Retention.Disabled {
		sweeper, err := reaper.NewRunner(
			cfg.Retention.Schedule,
			cfg.Retention.MaxAge.AsDuration(),
			[]string{cfg.Paths.WorkspaceRoot, cfg.Paths.DownloadsDir},
			reaper.WithLogger(logger.With("component", "reaper")),
			reaper.WithActiveCheck(pool.IsActive),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create retention sweeper: %w", err)
		}
		runnables = append(runnables, sweeper)
	}

	return runnables, nil
}
