package store

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the shared secret was missing or wrong. Terminal
// for the request; never retried.
var ErrUnauthorized = errors.New("unauthorized")

// UnreachableError wraps a transport failure. Recoverable: callers keep
// their last good snapshot and retry on their normal cadence.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RejectedError means a reachable backend refused the request, e.g. a
// validation failure. Mutations that hit one must be rolled back locally.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend rejected request: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend rejected request: status %d", e.Status)
}
