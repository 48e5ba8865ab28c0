package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned by session registries for unknown IDs.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrReportNotFound  = errors.New("report not found")
	ErrReportExists    = errors.New("report already exists")
)

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PreconditionError reports an operation attempted in the wrong session state.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// CompletionError is a non-success response from the completion service.
type CompletionError struct {
	StatusCode int
	Message    string
}

func (e *CompletionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("completion failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion failed with status %d: %s", e.StatusCode, e.Message)
}

// TransportError wraps a failure to reach the completion service.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}
