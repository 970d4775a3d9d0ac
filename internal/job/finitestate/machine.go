// Package finitestate provides the state machine that tracks a build job
// through the pipeline stages.
//
// Job lifecycle:
//  1. Queued - accepted, waiting for a worker
//  2. Validating - payload checked, no filesystem work yet
//  3. Materializing - template copied into the job workspace
//  4. Rewriting - identity files rewritten
//  5. Injecting - pages and settings written as build-time data
//  6. Building - native toolchain running
//  7. Publishing - artifact copied to the downloads directory
//  8. Completed - artifact available (terminal)
//
// Any non-terminal stage may move to Failed (terminal). There are no
// backward transitions.
package finitestate

import (
	"context"
	"log/slog"

	"github.com/robbyt/go-fsm"
)

// Stage constants for the job lifecycle
const (
	StageQueued        = "Queued"
	StageValidating    = "Validating"
	StageMaterializing = "Materializing"
	StageRewriting     = "Rewriting"
	StageInjecting     = "Injecting"
	StageBuilding      = "Building"
	StagePublishing    = "Publishing"
	StageCompleted     = "Completed"
	StageFailed        = "Failed"
)

// StageTransitions defines the valid stage transitions for a build job.
var StageTransitions = map[string][]string{
	StageQueued:        {StageValidating, StageFailed},
	StageValidating:    {StageMaterializing, StageFailed},
	StageMaterializing: {StageRewriting, StageFailed},
	StageRewriting:     {StageInjecting, StageFailed},
	StageInjecting:     {StageBuilding, StageFailed},
	StageBuilding:      {StagePublishing, StageFailed},
	StagePublishing:    {StageCompleted, StageFailed},
	StageCompleted:     {},
	StageFailed:        {},
}

// PipelineStages lists the working stages in execution order.
var PipelineStages = []string{
	StageValidating,
	StageMaterializing,
	StageRewriting,
	StageInjecting,
	StageBuilding,
	StagePublishing,
}

// IsTerminal reports whether stage has no outgoing transitions.
func IsTerminal(stage string) bool {
	return stage == StageCompleted || stage == StageFailed
}

// Machine defines the interface for the job stage machine.
type Machine interface {
	// Transition attempts to transition the state machine to the specified state.
	Transition(state string) error

	// GetState returns the current state of the state machine.
	GetState() string

	// GetStateChan returns a channel that emits the state machine's state whenever it changes.
	// The channel is closed when the provided context is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// New creates a job stage machine starting at StageQueued.
func New(handler slog.Handler) (Machine, error) {
	return fsm.New(handler, StageQueued, StageTransitions)
}
