package core

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("service not configured")

type NotFoundError struct {
	Kind string
	Id   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

// ConflictError is a request that does not fit the current state
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return e.Reason
}

func notConfigured(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotConfigured)
}
