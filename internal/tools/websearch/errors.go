package websearch

import "fmt"

// CredentialError indicates a missing search API credential.
type CredentialError struct {
	Name string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("missing credential %s", e.Name)
}

// FetchError wraps a failed HTTP fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// RequestError indicates malformed tool arguments.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return e.Reason }

// InvalidInput marks this error as caller input related.
func (e *RequestError) InvalidInput() bool { return true }
