package api

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired indicates the server rejected the bearer credential.
	ErrAuthExpired = errors.New("authentication expired; log in again")
	// ErrNotReady indicates a result is still being computed (HTTP 425).
	ErrNotReady = errors.New("result not ready")
	// ErrNoResult indicates the server holds no result for the handle (HTTP 204).
	ErrNoResult = errors.New("no result available")
	// ErrNotFound indicates the transcript is unknown to the server.
	ErrNotFound = errors.New("transcript not found")
)

// StatusError reports an unexpected HTTP status from the scoring service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned http %d", e.Status)
	}
	return fmt.Sprintf("server returned http %d: %s", e.Status, e.Body)
}

// TransportError wraps connectivity failures the user can retry manually.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether an error is a retryable connectivity failure.
func IsTransient(err error) bool {
	var transport *TransportError
	return errors.As(err, &transport)
}
