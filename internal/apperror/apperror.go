// Package apperror defines the error kinds the catalog workflow reports.
//
// Handlers switch on the sentinel with errors.Is and never show Message or
// Cause of infrastructure errors to the user.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("ownership violation")
	ErrUpload      = errors.New("upload error")
	ErrPersistence = errors.New("persistence error")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable message
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying library error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}

// OwnershipViolation is returned when a user tries to mutate a product they
// do not own. Update and delete both report it.
func OwnershipViolation(resource, id string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: fmt.Sprintf("%s %s is owned by another user", resource, id),
	}
}

func Upload(cause error) *AppError {
	return &AppError{
		Err:     ErrUpload,
		Message: "storing image",
		Cause:   cause,
	}
}

func Persistence(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistence,
		Message: op,
		Cause:   cause,
	}
}

// FieldError is one user-correctable problem with a submitted field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every FieldError of one submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add appends a field error and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// Empty reports whether no field error was collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Message returns the first message for field, or "".
func (e *ValidationError) Message(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Has reports whether field has an error.
func (e *ValidationError) Has(field string) bool {
	return e.Message(field) != ""
}

func ValidationFailed(field, message string) *ValidationError {
	return (&ValidationError{}).Add(field, message)
}
