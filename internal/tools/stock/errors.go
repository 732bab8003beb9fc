package stock

import "fmt"

// CredentialError indicates the Alpha Vantage API key is unset.
type CredentialError struct{}

func (e *CredentialError) Error() string {
	return "missing credential ALPHA_VANTAGE_API_KEY"
}

// QueryError wraps a failed Alpha Vantage request.
type QueryError struct {
	Reason string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alpha vantage query: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("alpha vantage query: %s", e.Reason)
}

func (e *QueryError) Unwrap() error { return e.Err }
