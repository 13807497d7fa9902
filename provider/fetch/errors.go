package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchExhausted is matched by every error returned
// after all fetch attempts failed
var ErrFetchExhausted = errors.New("fetch attempts exhausted")

// FetchExhaustedError is returned when a page could not be fetched
// within the allowed number of attempts
type FetchExhaustedError struct {
	Err      error  // last attempt error
	URL      string // page URL
	Attempts int    // number of attempts made
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("unable to fetch %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.Err
}

func (e *FetchExhaustedError) Is(target error) bool {
	return target == ErrFetchExhausted
}

// StatusError is a non-2xx response from the listing site
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// IsRetryable returns true if the status should trigger a retry
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
