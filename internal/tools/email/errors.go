package email

import "fmt"

// SendError wraps a failed email send.
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("send email: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("send email: %s", e.Reason)
}

func (e *SendError) Unwrap() error { return e.Err }
