// Package auth gates workflow invocation and editor saves.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Error indicates the caller lacks permission for an operation. It is always
// surfaced before any state is mutated.
type Error struct {
	Subject   string
	Operation string
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("not authorized to %s: sign in required", e.Operation)
	}

	return fmt.Sprintf("%s is not authorized to %s", e.Subject, e.Operation)
}

// IsAuthError reports whether err is an authorization failure.
func IsAuthError(err error) bool {
	var authErr *Error

	return errors.As(err, &authErr)
}

// Authorizer decides whether a subject may execute or save a workflow.
type Authorizer interface {
	CanExecute(ctx context.Context, subject, workflowID string) error
	CanSave(ctx context.Context, subject, workflowID string) error
}

// StaticAuthorizer authorizes any signed-in subject. An empty subject means
// the caller is not authenticated.
type StaticAuthorizer struct{}

func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{}
}

func (*StaticAuthorizer) CanExecute(_ context.Context, subject, _ string) error {
	if subject == "" {
		return &Error{Operation: "execute workflow"}
	}

	return nil
}

func (*StaticAuthorizer) CanSave(_ context.Context, subject, _ string) error {
	if subject == "" {
		return &Error{Operation: "save workflow"}
	}

	return nil
}
