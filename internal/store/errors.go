package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no item carries the requested id.
var ErrNotFound = errors.New("item not found")

// FieldError names one rejected field and why it was rejected.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError rejects a create or update without touching the
// collection.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "invalid item: " + strings.Join(parts, "; ")
}

// invalid builds a single-field ValidationError.
func invalid(field, reason string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}
