package sandbox

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a child process exceeds its wall-clock limit.
var ErrTimeout = errors.New("execution timeout")

// SpawnError is returned when a child process cannot be started.
type SpawnError struct {
	Cmd   string
	Cause error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %q: %v", e.Cmd, e.Cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}

func (e *SpawnError) IOError() bool {
	return true
}

// ScopeError is returned when the sandbox scope itself is unusable,
// e.g. the working directory disappeared. It aborts only the current
// call, never the session.
type ScopeError struct {
	Dir   string
	Cause error
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("sandbox scope unusable (dir %s): %v", e.Dir, e.Cause)
}

func (e *ScopeError) Unwrap() error {
	return e.Cause
}

func (e *ScopeError) IOError() bool {
	return true
}
