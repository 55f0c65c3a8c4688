package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrRunStopped    = errors.New("harvest run has been stopped")
	ErrMaxAttempts   = errors.New("max attempts exceeded")
	ErrMissingAPIKey = errors.New("API key is not configured")
	ErrDetailTimeout = errors.New("detail view did not render in time")
	ErrNoListing     = errors.New("results container not found")
)

// APIError wraps a failed call to the generation endpoint.
type APIError struct {
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After on HTTP 429
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation API error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation API error: %v", e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) IsRetryable() bool { return e.Retryable }

// ExtractError wraps a per-item extraction failure. Items that fail are
// skipped, never fatal for the run.
type ExtractError struct {
	CardID string
	Step   string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract error for card %s at %s: %v", e.CardID, e.Step, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// ResolveError wraps a failed secondary-site email lookup.
type ResolveError struct {
	URL string
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve error for %s: %v", e.URL, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// StorageError wraps errors from a result sink.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
