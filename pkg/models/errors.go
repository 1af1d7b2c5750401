package models

import "fmt"

// ValidationError – for invalid parameters or business rule violations.
// Supports errors.As.
type ValidationError struct {
	msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a new ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// TransformationError wraps errors that occur while converting between
// backend rows and models.
type TransformationError struct {
	msg string
}

// Error implements the error interface.
func (e *TransformationError) Error() string {
	return e.msg
}

// NewTransformationError creates a new TransformationError.
func NewTransformationError(msg string) error {
	return &TransformationError{
		msg: msg,
	}
}

// DatabaseError – for failures interacting with the persistence layer.
// Supports errors.As and errors.Unwrap.
//
// Will only be provided as a response from internal stores.
type DatabaseError struct {
	err error
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database error: %v", e.err)
}

func (e *DatabaseError) Unwrap() error {
	return e.err
}

// NewDatabaseError creates a new DatabaseError.
func NewDatabaseError(err error) error {
	return &DatabaseError{
		err: err,
	}
}

// ErrNotFound matches any NotFoundError through errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError is returned by stores when a keyed lookup has no row.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// ErrConflict matches any ConflictError through errors.Is.
var ErrConflict = &ConflictError{}

// ConflictError is returned when a create would overwrite an existing resource.
type ConflictError struct {
	Resource string
	ID       string
	err      error
}

func NewConflictError(resource, id string, err error) error {
	return &ConflictError{Resource: resource, ID: id, err: err}
}

func (e *ConflictError) Error() string {
	if e.Resource == "" {
		return "conflict"
	}
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.ID)
}

func (e *ConflictError) Unwrap() error {
	return e.err
}

func (e *ConflictError) Is(target error) bool {
	_, ok := target.(*ConflictError)
	return ok
}
