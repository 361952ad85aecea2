package common

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates a request failed schema or business-rule
// validation. It carries the full list of violations so the caller can
// surface every problem at once.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidationError creates a ValidationError with a single message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Messages: []string{message}}
}

// NewValidationErrors creates a ValidationError from a list of messages.
func NewValidationErrors(messages []string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// UnauthorizedError indicates missing or invalid authentication, including a
// missing acting-admin identity.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}
