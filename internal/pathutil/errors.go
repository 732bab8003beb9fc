package pathutil

import "fmt"

// OutsideSandboxError indicates a path is outside the sandbox boundary.
type OutsideSandboxError struct{}

func (e *OutsideSandboxError) Error() string {
	return "path is outside the sandbox boundary"
}

// OutsideSandbox implements the behavioral interface for cross-package
// error checking.
func (e *OutsideSandboxError) OutsideSandbox() bool {
	return true
}

// ErrOutsideSandbox is returned when a path escapes the sandbox boundary.
var ErrOutsideSandbox = &OutsideSandboxError{}

// WorkspaceRootError is returned when the workspace root is invalid.
type WorkspaceRootError struct {
	Root  string
	Cause error
}

func (e *WorkspaceRootError) Error() string {
	return fmt.Sprintf("invalid workspace root %s: %v", e.Root, e.Cause)
}

func (e *WorkspaceRootError) Unwrap() error {
	return e.Cause
}

func (e *WorkspaceRootError) InvalidWorkspace() bool {
	return true
}

// WorkspaceRootNotSetError is returned when the workspace root is empty.
type WorkspaceRootNotSetError struct{}

func (e *WorkspaceRootNotSetError) Error() string {
	return "workspace root not set"
}

func (e *WorkspaceRootNotSetError) InvalidWorkspace() bool {
	return true
}

// ErrWorkspaceRootNotSet is returned when no workspace root was configured.
var ErrWorkspaceRootNotSet = &WorkspaceRootNotSetError{}

// NotADirectoryError is returned when a path is expected to be a
// directory but isn't.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("not a directory: %s", e.Path)
}

func (e *NotADirectoryError) InvalidWorkspace() bool {
	return true
}
