package types

import (
	"errors"
	"fmt"
)

// ErrEmptyInput indicates the user input was empty after trimming.
// Adapters recover locally by prompting again; neither external
// capability is contacted.
var ErrEmptyInput = errors.New("input is empty")

// ServiceError represents a failure reported by one of the external capabilities
// (network failure, authentication failure, quota exceeded). It is surfaced to the
// caller unchanged and never retried.
type ServiceError struct {
	Op  string // "moderation" or "generation"
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service error: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps an existing error as a ServiceError for the given operation.
func NewServiceError(op string, err error) error {
	return &ServiceError{Op: op, Err: err}
}
