package fileedit

import "fmt"

// RequestError indicates malformed or unsupported file editor arguments.
type RequestError struct {
	Reason string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file editor: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("file editor: %s", e.Reason)
}

func (e *RequestError) Unwrap() error { return e.Err }

// InvalidInput marks this error as caller input related.
func (e *RequestError) InvalidInput() bool { return true }

// PatchError indicates a unified diff that could not be applied to the
// current file contents.
type PatchError struct {
	Filename string
	Reason   string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("cannot apply patch to %s: %s", e.Filename, e.Reason)
}

// InvalidInput marks this error as caller input related.
func (e *PatchError) InvalidInput() bool { return true }

// FileIOError wraps filesystem failures during an edit.
type FileIOError struct {
	Op       string
	Filename string
	Err      error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Filename, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// IOError marks this error as filesystem related.
func (e *FileIOError) IOError() bool { return true }
