package models

import "fmt"

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// UnauthorizedError indicates no user identity was available for an action that needs one.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// ForbiddenError indicates the identity lacks permission.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// PreconditionFailedError indicates the operation is not allowed yet; retrying later may succeed.
type PreconditionFailedError struct {
	Message string
}

func (e *PreconditionFailedError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnauthorized creates an UnauthorizedError with a formatted message.
func ErrUnauthorized(format string, args ...interface{}) *UnauthorizedError {
	return &UnauthorizedError{Message: fmt.Sprintf(format, args...)}
}

// ErrForbidden creates a ForbiddenError with a formatted message.
func ErrForbidden(format string, args ...interface{}) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// ErrPreconditionFailed creates a PreconditionFailedError with a formatted message.
func ErrPreconditionFailed(format string, args ...interface{}) *PreconditionFailedError {
	return &PreconditionFailedError{Message: fmt.Sprintf(format, args...)}
}
