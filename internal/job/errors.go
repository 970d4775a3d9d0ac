package job

import (
	"errors"
	"fmt"

	"github.com/atlanticdynamic/appforge/internal/toolchain"
)

var (
	// ErrCancelled is recorded as the failure of a job cancelled by id.
	ErrCancelled = toolchain.ErrCancelled

	// ErrJobTerminal is returned when a finished job is asked to change stage.
	ErrJobTerminal = errors.New("job already finished")
)

// Failure records the stage a job failed in and the error that stopped it.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("failed during %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Output returns captured toolchain output when the failure came from a build step.
func (f *Failure) Output() []byte {
	var buildErr *toolchain.BuildError
	if errors.As(f.Err, &buildErr) {
		return buildErr.Output
	}
	return nil
}

// Cancelled reports whether the job was stopped by cancellation.
func (f *Failure) Cancelled() bool {
	return errors.Is(f.Err, ErrCancelled)
}
