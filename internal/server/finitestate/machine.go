// Package finitestate provides the lifecycle state machine shared by the
// long-running runnables of the server: the build pool, the HTTP API and
// the retention sweeper.
package finitestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

const (
	StatusNew      = fsm.StatusNew
	StatusBooting  = fsm.StatusBooting
	StatusRunning  = fsm.StatusRunning
	StatusStopping = fsm.StatusStopping
	StatusStopped  = fsm.StatusStopped
	StatusError    = fsm.StatusError
)

// stateChanTimeout bounds how long a state broadcast waits on a slow subscriber.
const stateChanTimeout = 5 * time.Second

// Machine is the lifecycle state machine of a runnable.
type Machine interface {
	// Transition moves the machine to state, failing when the move is not allowed.
	Transition(state string) error

	// SetState forces the machine into state.
	SetState(state string) error

	// GetState returns the current state.
	GetState() string

	// GetStateChan returns a channel that emits the state whenever it changes.
	// The channel is closed when ctx is canceled.
	GetStateChan(ctx context.Context) <-chan string
}

// RunnableFSM embeds fsm.Machine and overrides GetStateChan for sync broadcast
type RunnableFSM struct {
	*fsm.Machine
}

// GetStateChan returns a sync broadcast channel so the supervisor sees the
// Stopping and Stopped states during shutdown.
func (m *RunnableFSM) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanWithOptions(ctx, fsm.WithSyncTimeout(stateChanTimeout))
}

// IsRunning reports whether m is in the Running state.
func IsRunning(m Machine) bool {
	return m.GetState() == StatusRunning
}

// Fail forces m into the Error state after a runnable could not start.
func Fail(m Machine, logger *slog.Logger, cause error) {
	logger.Error("Runnable failed", "state", m.GetState(), "error", cause)
	if err := m.SetState(StatusError); err != nil {
		logger.Error("Failed to set error state", "error", err)
	}
}

// New creates a lifecycle state machine starting at StatusNew with the typical transitions.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusNew, fsm.TypicalTransitions)
	if err != nil {
		return nil, err
	}
	return &RunnableFSM{Machine: machine}, nil
}
