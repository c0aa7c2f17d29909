package step

import (
	"errors"
	"fmt"
)

var (
	ErrParse        = errors.New("countstep: malformed request")
	ErrMissingField = errors.New("countstep: missing field")
	ErrTypeMismatch = errors.New("countstep: type mismatch")
)

// ParseError reports a request that is not a single JSON object.
type ParseError struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// MissingFieldError reports a required key absent from the request.
// Field is a dotted path such as "input.sum".
type MissingFieldError struct {
	Field string `json:"field"`
}

// Error implements the error interface
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// TypeMismatchError reports a field whose value has the wrong JSON type or
// cannot be represented as a counter.
type TypeMismatchError struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: expected %s, got %s", e.Field, e.Expected, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// Kind classifies err into one of the request error kinds, or "error" for
// anything else (I/O failures, cancellation). Used as a metrics label.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrTypeMismatch):
		return "type_mismatch"
	default:
		return "error"
	}
}
