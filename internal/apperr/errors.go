// Package apperr holds the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError means the caller sent a malformed request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports a missing venue, court, booking or user.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// ConflictError reports an overlapping booking or a duplicate resource.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// InvalidStateError reports an illegal status transition.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string { return e.Msg }

type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) error {
	return &UnauthorizedError{Msg: msg}
}

func Forbidden(msg string) error {
	return &ForbiddenError{Msg: msg}
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}
