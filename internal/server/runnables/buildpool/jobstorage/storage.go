// Package jobstorage keeps the build jobs known to the pool: every job that
// is queued or running, plus a bounded history of finished ones.
package jobstorage

import (
	"log/slog"
	"sync"

	"github.com/atlanticdynamic/appforge/internal/job"
)

// DefaultMaxHistory is the default number of finished jobs to keep
const DefaultMaxHistory = 100

// MemoryStorage provides a thread-safe storage for build jobs
type MemoryStorage struct {
	// Stored jobs, oldest first
	jobs []*job.BuildJob

	// Mutex to protect access to jobs
	mu sync.RWMutex

	// Maximum number of finished jobs to keep
	maxHistory int

	logger *slog.Logger
}

// Option is a functional option for configuring the MemoryStorage
type Option func(*MemoryStorage)

// WithMaxHistory sets the maximum number of finished jobs to keep
func WithMaxHistory(n int) Option {
	return func(s *MemoryStorage) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithLogHandler sets the log handler for the storage
func WithLogHandler(handler slog.Handler) Option {
	return func(s *MemoryStorage) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("jobstorage")
		}
	}
}

// WithLogger sets the logger for the storage
func WithLogger(logger *slog.Logger) Option {
	return func(s *MemoryStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewMemoryStorage creates a new job storage with the given options
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		jobs:       make([]*job.BuildJob, 0, 16),
		maxHistory: DefaultMaxHistory,
		logger:     slog.Default().WithGroup("jobstorage"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add adds a job to storage and trims the finished-job history
func (s *MemoryStorage) Add(j *job.BuildJob) error {
	if j == nil {
		return nil
	}
	s.logger.WithGroup("Add").Debug("Adding job", "id", j.ID.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
	s.trim()
	return nil
}

// GetAll returns every stored job, oldest first
func (s *MemoryStorage) GetAll() []*job.BuildJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*job.BuildJob, len(s.jobs))
	copy(result, s.jobs)
	return result
}

// GetByID returns a job by ID or nil if not found
func (s *MemoryStorage) GetByID(id string) *job.BuildJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.jobs) - 1; i >= 0; i-- {
		if s.jobs[i].ID.String() == id {
			return s.jobs[i]
		}
	}
	return nil
}

// Active returns the jobs that have not reached a terminal stage
func (s *MemoryStorage) Active() []*job.BuildJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*job.BuildJob
	for _, j := range s.jobs {
		if !j.IsTerminal() {
			active = append(active, j)
		}
	}
	return active
}

// Trim drops the oldest finished jobs beyond the history limit. Jobs that
// are still queued or running are never dropped.
func (s *MemoryStorage) Trim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trim()
}

func (s *MemoryStorage) trim() {
	finished := 0
	for _, j := range s.jobs {
		if j.IsTerminal() {
			finished++
		}
	}
	excess := finished - s.maxHistory
	if excess <= 0 {
		return
	}

	kept := make([]*job.BuildJob, 0, len(s.jobs)-excess)
	for _, j := range s.jobs {
		if excess > 0 && j.IsTerminal() {
			excess--
			continue
		}
		kept = append(kept, j)
	}
	s.logger.Debug("Trimmed job history", "dropped", len(s.jobs)-len(kept), "remaining", len(kept))
	s.jobs = kept
}
