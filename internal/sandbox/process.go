package sandbox

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ProcessResult is the raw outcome of one child process.
type ProcessResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// ProcessRunner spawns and reaps child processes. It exists as an
// interface so executor tests can verify lifecycle behavior without
// real processes.
type ProcessRunner interface {
	// Run executes the command and blocks until the child has been
	// reaped. On timeout the child gets an interrupt, then a kill after
	// the grace period; the returned error is ErrTimeout. On context
	// cancellation the child is killed and the context error returned.
	// A non-nil result with partial output accompanies every error that
	// occurs after the process started.
	Run(ctx context.Context, command []string, dir string, env []string, limits ProcessLimits) (*ProcessResult, error)
}

// ProcessLimits bounds one child process.
type ProcessLimits struct {
	Timeout          time.Duration
	GracefulShutdown time.Duration
	MaxOutputBytes   int64
	BinarySampleSize int
}

// OSProcessRunner implements ProcessRunner using os/exec.
type OSProcessRunner struct{}

// NewOSProcessRunner creates a runner backed by real processes.
func NewOSProcessRunner() *OSProcessRunner {
	return &OSProcessRunner{}
}

// Run executes a command with a hard timeout and bounded output capture.
// The child is always reaped before Run returns: every exit path waits
// on cmd.Wait via the done channel.
func (r *OSProcessRunner) Run(ctx context.Context, command []string, dir string, env []string, limits ProcessLimits) (*ProcessResult, error) {
	if len(command) == 0 {
		return nil, os.ErrInvalid
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Cmd: command[0], Cause: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Cmd: command[0], Cause: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Cmd: command[0], Cause: err}
	}

	// Collect output concurrently so it doesn't block the timeout select.
	var stdoutStr, stderrStr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdoutStr, stderrStr, truncated = collectOutput(stdoutPipe, stderrPipe, limits)
		close(collectDone)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var execErr error
	select {
	case err := <-done:
		execErr = err
	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(limits.GracefulShutdown):
			_ = cmd.Process.Kill()
			<-done
		}
		execErr = ctx.Err()
	case <-time.After(limits.Timeout):
		// Try graceful shutdown first, then force.
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(limits.GracefulShutdown):
			_ = cmd.Process.Kill()
			<-done
		}
		execErr = ErrTimeout
	}

	// Output collection finishes once the pipes close on process exit.
	<-collectDone

	exitCode := 0
	if execErr != nil {
		exitCode = getExitCode(execErr)
	}

	// A plain nonzero exit is a result, not an error.
	var exitErr *exec.ExitError
	if errors.As(execErr, &exitErr) {
		execErr = nil
	}

	return &ProcessResult{
		Stdout:    stdoutStr,
		Stderr:    stderrStr,
		ExitCode:  exitCode,
		Truncated: truncated,
	}, execErr
}

func collectOutput(stdout, stderr io.Reader, limits ProcessLimits) (string, string, bool) {
	stdoutCollector := newCollector(limits.MaxOutputBytes, limits.BinarySampleSize)
	stderrCollector := newCollector(limits.MaxOutputBytes, limits.BinarySampleSize)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()

	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}
