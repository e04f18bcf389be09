package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUserNotFound is returned when an exercise references a user that cannot
// be resolved.
var ErrUserNotFound = errors.New("user not found")

// StoreError is the single failure category surfaced to API clients. Op names
// the operation that failed; the message is the underlying error's, unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// CastError reports a value that could not be converted to the type of the
// path it targets.
type CastError struct {
	Kind  string
	Value string
	Path  string
	Model string
}

func (e *CastError) Error() string {
	msg := fmt.Sprintf("Cast to %s failed for value %q (type string) at path %q", e.Kind, e.Value, e.Path)
	if e.Model != "" {
		msg += fmt.Sprintf(" for model %q", e.Model)
	}
	return msg
}

// FieldError is one failed path in a ValidationError.
type FieldError struct {
	Path    string
	Message string
}

// ValidationError lists every path of a document that failed validation, in
// schema order.
type ValidationError struct {
	Model  string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return fmt.Sprintf("%s validation failed: %s", e.Model, strings.Join(parts, ", "))
}

func requiredMessage(path string) string {
	return fmt.Sprintf("Path `%s` is required.", path)
}
