// Package journey drives the end-to-end workflow-to-journey conversion:
// node and edge conversion through the converter registry, structural
// post-processing, metadata scoring and final state-machine validation.
package journey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWorkflowNil is returned when the input workflow is missing.
	ErrWorkflowNil = errors.New("workflow cannot be nil")

	// ErrNoNodes is returned when the workflow has no nodes to convert.
	ErrNoNodes = errors.New("workflow must have at least one node")
)

// ValidationError aggregates every invariant violation found during the
// final validation pass. The journey build aborts with the full list.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("journey validation failed: %s", strings.Join(e.Violations, "; "))
}

// ServiceError wraps mapping-service errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to a client error at the
// API boundary.
func IsValidationError(err error) bool {
	var validationErr *ValidationError

	return errors.As(err, &validationErr) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrNoNodes)
}
