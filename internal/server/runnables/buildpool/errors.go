package buildpool

import "errors"

var (
	// ErrQueueFull is returned when a submission finds the queue at capacity.
	ErrQueueFull = errors.New("build queue is full")

	// ErrNotRunning is returned when jobs are submitted while the pool is not running.
	ErrNotRunning = errors.New("build pool is not running")

	// ErrJobNotFound is returned for ids the pool does not know.
	ErrJobNotFound = errors.New("build job not found")

	// ErrJobFinished is returned when cancelling a job that already finished.
	ErrJobFinished = errors.New("build job already finished")
)
