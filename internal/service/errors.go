package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when no patient has the requested id.
	ErrNotFound = errors.New("patient not found")

	// ErrConflict is returned by Create when the id is already taken.
	ErrConflict = errors.New("patient already exists")

	// ErrInvalidArgument is returned for bad sort parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func fieldError(field, rule, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Message: msg}}}
}
