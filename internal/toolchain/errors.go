package toolchain

import (
	"errors"
	"fmt"
)

var (
	// ErrBuild is matched by every BuildError.
	ErrBuild = errors.New("build failed")

	// ErrCancelled is returned when the caller cancels a build in flight.
	ErrCancelled = errors.New("build cancelled")

	// ErrStepTimeout means a step ran past its own timeout and was killed.
	ErrStepTimeout = errors.New("build step timed out")
)

// BuildError records the first toolchain step that failed. Output holds
// everything the step wrote to stdout and stderr, interleaved.
type BuildError struct {
	Step     Step
	ExitCode int
	Output   []byte
	Err      error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: step %s: %v", ErrBuild, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: step %s exited with code %d", ErrBuild, e.Step, e.ExitCode)
}

// Unwrap exposes ErrBuild and, when set, the underlying cause.
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBuild}
	}
	return []error{ErrBuild, e.Err}
}
