package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a planning request is rejected before
	// any data is fetched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExternalService is returned when the advisory service is unreachable,
	// times out, or answers with something that cannot be decoded.
	ErrExternalService = errors.New("external service error")

	// ErrCatalog is returned when the project/goal/task source fails.
	ErrCatalog = errors.New("catalog unavailable")

	// ErrMalformedResponse is wrapped by ExternalServiceError when a response
	// was received but could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// ExternalServiceError describes a failed call to the advisory service.
// It matches ErrExternalService with errors.Is.
type ExternalServiceError struct {
	Service   string
	Op        string
	Retryable bool
	Err       error
}

// NewExternalServiceError wraps err as a retryable external failure.
func NewExternalServiceError(service, op string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Op: op, Retryable: true, Err: err}
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExternalService.
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}

// IsRetryable reports whether err is an external failure worth another attempt.
func IsRetryable(err error) bool {
	var ext *ExternalServiceError
	if errors.As(err, &ext) {
		return ext.Retryable
	}
	return false
}
