// Package metrics exposes Prometheus collectors for build jobs, toolchain
// steps, the build queue and the HTTP API.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atlanticdynamic/appforge/internal/toolchain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "appforge"

// Collector owns a registry and the collectors registered in it.
type Collector struct {
	registry *prometheus.Registry

	jobsInFlight  prometheus.Gauge
	jobsTotal     *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	stepDuration  *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	queueRejected prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry. An empty
// namespace uses DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),

		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Number of build jobs currently running.",
		}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Build jobs that reached a terminal stage.",
		}, []string{"result", "failed_stage"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Wall time of build jobs from acceptance to a terminal stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "stage_duration_seconds",
			Help:      "Duration of successful pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 18), // 10ms to ~22m
		}, []string{"stage"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "toolchain",
			Name:      "step_duration_seconds",
			Help:      "Duration of toolchain steps.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 15), // 100ms to ~27m
		}, []string{"step", "result"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Build jobs waiting for a worker.",
		}),
		queueRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "rejected_total",
			Help:      "Submissions refused because the queue was full.",
		}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 18), // 5ms to ~22m
		}, []string{"method", "path"}),
	}

	c.registry.MustRegister(
		c.jobsInFlight,
		c.jobsTotal,
		c.jobDuration,
		c.stageDuration,
		c.stepDuration,
		c.queueDepth,
		c.queueRejected,
		c.httpRequests,
		c.httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return c
}

// Registry returns the registry the collectors are registered in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// JobStarted counts a job as in flight.
func (c *Collector) JobStarted() {
	c.jobsInFlight.Inc()
}

// StageFinished records the duration of a successful stage.
func (c *Collector) StageFinished(stage string, elapsed time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// BuildStepFinished records a toolchain step.
func (c *Collector) BuildStepFinished(step toolchain.Step, elapsed time.Duration, err error) {
	c.stepDuration.WithLabelValues(string(step), stepResult(err)).Observe(elapsed.Seconds())
}

// JobFinished records the terminal stage of a job and stops counting it as in flight.
func (c *Collector) JobFinished(stage, failedStage string, elapsed time.Duration) {
	c.jobsInFlight.Dec()
	result := strings.ToLower(stage)
	c.jobsTotal.WithLabelValues(result, failedStage).Inc()
	c.jobDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// SetQueueDepth records how many jobs wait for a worker.
func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// QueueRejected counts a submission refused for a full queue.
func (c *Collector) QueueRejected() {
	c.queueRejected.Inc()
}

func stepResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, toolchain.ErrCancelled):
		return "cancelled"
	case errors.Is(err, toolchain.ErrStepTimeout):
		return "timeout"
	default:
		return "failed"
	}
}

// InstrumentHandler wraps next with HTTP request metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)
		c.httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		c.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// canonicalPath collapses per-job path segments so label cardinality stays bounded.
func canonicalPath(p string) string {
	switch {
	case strings.HasPrefix(p, "/downloads/"):
		return "/downloads/*"
	case strings.HasPrefix(p, "/api/builds/"):
		return "/api/builds/{id}"
	default:
		return p
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
