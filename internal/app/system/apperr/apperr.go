// internal/app/system/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnavailable
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// FieldError describes a problem with a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error returned by core operations.
type Error struct {
	Kind     Kind
	Resource string // set for NotFound
	Msg      string
	Fields   []FieldError
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	case e.Kind == KindNotFound && e.Resource != "":
		b.WriteString(e.Resource + " not found")
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind. A target with a Resource
// also has to match the resource, so errors.Is(err, apperr.NotFound("student"))
// only matches a missing student.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Resource == "" || t.Resource == e.Resource
}

// Sentinels for errors.Is checks on kind alone.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrForbidden   = &Error{Kind: KindForbidden}
)

// Validation reports invalid input.
func Validation(msg string, fields ...FieldError) error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// Field is shorthand for a single-field validation error.
func Field(field, msg string) error {
	return Validation(field+": "+msg, FieldError{Field: field, Message: msg})
}

// NotFound reports a missing resource such as "offence" or "student".
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Resource: resource}
}

// Conflict reports a write that lost to a concurrent writer.
func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

// Unavailable reports a backend that cannot serve the request.
func Unavailable(msg string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// Forbidden reports an actor acting outside their rights.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// Wrap annotates err with context while keeping its classification.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldsOf returns the field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool    { return KindOf(err) == KindConflict }
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }
func IsForbidden(err error) bool   { return KindOf(err) == KindForbidden }
