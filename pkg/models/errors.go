package models

import "fmt"

// ValidationError reports input the console refuses, such as a missing
// required field or an unknown class. The message is safe to show users.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ConflictError is returned when a registration would duplicate a student.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func NewConflictError(msg string) error {
	return &ConflictError{msg: msg}
}

// TransformationError means a session could not be encoded for, or decoded
// from, the session store.
type TransformationError struct {
	msg string
}

func (e *TransformationError) Error() string {
	return e.msg
}

func NewTransformationError(msg string) error {
	return &TransformationError{msg: msg}
}

// DatabaseError wraps a failure from a SQL session store backend.
type DatabaseError struct {
	err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %v", e.err)
}

func (e *DatabaseError) Unwrap() error {
	return e.err
}

func NewDatabaseError(err error) error {
	return &DatabaseError{err: err}
}
