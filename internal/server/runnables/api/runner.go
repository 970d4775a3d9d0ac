// Package api serves the build API over HTTP: synchronous and asynchronous
// build submission, job status and cancellation, published artifact
// downloads and metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/atlanticdynamic/appforge/internal/job"
	"github.com/atlanticdynamic/appforge/internal/server/runnables/api/middleware"
	"github.com/robbyt/go-supervisor/runnables/httpserver"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Defaults for the listener.
const (
	DefaultListenAddr   = "localhost:3001"
	DefaultDrainTimeout = 30 * time.Second
	DefaultMaxBodyBytes = 10 << 20
)

// Builds is the build pool as seen by the API.
type Builds interface {
	Submit(payload []byte, existingJob string) (*job.BuildJob, error)
	SubmitAndWait(ctx context.Context, payload []byte, existingJob string) (*job.BuildJob, error)
	Get(id string) (*job.BuildJob, error)
	List() []*job.BuildJob
	Cancel(id string) (*job.BuildJob, error)
}

// serverImplementation abstracts the underlying HTTP server runnable
type serverImplementation interface {
	Run(ctx context.Context) error
	Stop()
	GetState() string
	IsRunning() bool
	GetStateChan(ctx context.Context) <-chan string
}

// Interface guards
var (
	_ supervisor.Runnable  = (*Runner)(nil)
	_ supervisor.Stateable = (*Runner)(nil)
)

// Runner is the HTTP API runnable.
type Runner struct {
	builds       Builds
	downloadsDir string

	listenAddr     string
	drainTimeout   time.Duration
	maxBodyBytes   int64
	metricsHandler http.Handler
	instrument     func(http.Handler) http.Handler

	handler http.Handler
	server  serverImplementation
	logger  *slog.Logger
}

// NewRunner creates the API runnable. Published artifacts are served from downloadsDir.
func NewRunner(builds Builds, downloadsDir string, opts ...Option) (*Runner, error) {
	if builds == nil {
		return nil, errors.New("builds cannot be nil")
	}
	if downloadsDir == "" {
		return nil, errors.New("downloads dir cannot be empty")
	}

	r := &Runner{
		builds:       builds,
		downloadsDir: downloadsDir,
		listenAddr:   DefaultListenAddr,
		drainTimeout: DefaultDrainTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       slog.Default().WithGroup("api.Runner"),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.handler = r.routes()
	if err := r.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize HTTP server runner: %w", err)
	}
	return r, nil
}

func (r *Runner) initializeServer() error {
	route, err := httpserver.NewRouteFromHandlerFunc(
		"appforge-api",
		"/",
		r.handler.ServeHTTP,
		middleware.NewRequestLogger(r.logger, MetricsPath).Middleware(),
		middleware.NewResponseHeaders(middleware.DefaultResponseHeaders),
	)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	configCallback := func() (*httpserver.Config, error) {
		config, err := httpserver.NewConfig(
			r.listenAddr,
			httpserver.Routes{*route},
			httpserver.WithDrainTimeout(r.drainTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP server config: %w", err)
		}
		return config, nil
	}

	runner, err := httpserver.NewRunner(httpserver.WithConfigCallback(configCallback))
	if err != nil {
		return err
	}
	r.server = runner
	return nil
}

// Handler returns the API routes.
func (r *Runner) Handler() http.Handler {
	return r.handler
}

// ListenAddr returns the address the API listens on.
func (r *Runner) ListenAddr() string {
	return r.listenAddr
}

// String returns the name of this runnable component.
func (r *Runner) String() string {
	return "api.Runner"
}

// Run starts the HTTP server
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Starting API server", "address", r.listenAddr)
	return r.server.Run(ctx)
}

// Stop stops the HTTP server
func (r *Runner) Stop() {
	r.logger.Info("Stopping API server", "address", r.listenAddr)
	r.server.Stop()
}

// GetState returns the current state of the server
func (r *Runner) GetState() string {
	return r.server.GetState()
}

// IsRunning returns whether the server is running
func (r *Runner) IsRunning() bool {
	return r.server.IsRunning()
}

// GetStateChan returns a channel that emits state changes
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.server.GetStateChan(ctx)
}
