// Package services is the business layer between the HTTP surface and the
// engine, stores and trigger registry.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a request that fails structural validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNameRequired indicates a workflow without a usable name.
	ErrNameRequired = errors.New("workflow name is required")
	// ErrUnknownTrigger indicates an event name outside the trigger catalog.
	ErrUnknownTrigger = errors.New("unknown trigger event")
)

// ServiceError wraps a service-level failure with the operation that hit it.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err should map to a 400 response.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrUnknownTrigger)
}
