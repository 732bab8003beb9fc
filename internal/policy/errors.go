package policy

import "fmt"

// PatternError is returned when a configured rule pattern does not compile.
type PatternError struct {
	Pattern string
	Cause   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid policy pattern %q: %v", e.Pattern, e.Cause)
}

func (e *PatternError) Unwrap() error {
	return e.Cause
}

func (e *PatternError) InvalidInput() bool {
	return true
}
