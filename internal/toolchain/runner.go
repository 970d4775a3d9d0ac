// Package toolchain drives the external native build toolchain inside a job workspace.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Result is the outcome of one external command.
type Result struct {
	ExitCode int
	Output   []byte
}

// Runner executes a command in dir. A non-zero exit is reported through
// Result.ExitCode, not as an error; errors mean the command could not be
// started or was interrupted by ctx.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (Result, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct {
	// Env is appended to the parent environment.
	Env []string

	// WaitDelay bounds how long to wait for output pipes after the process
	// is killed.
	WaitDelay time.Duration
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns an ExecRunner with the given extra environment.
func NewExecRunner(env []string) *ExecRunner {
	return &ExecRunner{Env: env, WaitDelay: 5 * time.Second}
}

// Run starts argv in dir and waits for it. When ctx is done the process and
// everything it spawned are killed.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: -1}, errors.New("empty command")
	}

	out := &lockedBuffer{}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = r.WaitDelay
	killProcessGroup(cmd)

	err := cmd.Run()
	res := Result{ExitCode: 0, Output: out.Bytes()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	return res, fmt.Errorf("failed to run %s: %w", argv[0], err)
}

// lockedBuffer lets stdout and stderr share one buffer so their output
// stays interleaved in write order.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
