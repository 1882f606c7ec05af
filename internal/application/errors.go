package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness policy rejects the request.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when authentication input does not match a stored account.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// PersistenceError wraps a failed storage call so callers can distinguish
// backend faults from domain errors. Validation always runs before any
// storage call, so a PersistenceError implies no input problem.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying storage error.
func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
