package buildpool

import (
	"context"

	"github.com/atlanticdynamic/appforge/internal/job"
)

// Processor runs a job to a terminal stage.
type Processor interface {
	Run(ctx context.Context, j *job.BuildJob) error
}

// QueueObserver is told about queue activity, for metrics.
type QueueObserver interface {
	SetQueueDepth(n int)
	QueueRejected()
}

type noopQueueObserver struct{}

func (noopQueueObserver) SetQueueDepth(int) {}

func (noopQueueObserver) QueueRejected() {}
