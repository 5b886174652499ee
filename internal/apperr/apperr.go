// Package apperr defines the error taxonomy shared by the stage guards and the
// orchestrators. Every failure that reaches the HTTP layer is an *Error with a
// stable Kind, a human-readable message and optional field-level details.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category.
type Kind string

const (
	KindBadRequest         Kind = "BAD_REQUEST"
	KindInvalidToken       Kind = "INVALID_TOKEN"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindNotActive          Kind = "NOT_ACTIVE"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindGone               Kind = "GONE"
	KindConflict           Kind = "CONFLICT"
	KindNotAcceptable      Kind = "NOT_ACCEPTABLE"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is a categorized failure. Fields maps request field names to reasons
// so clients can drive form validation without parsing Message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Status returns the HTTP-equivalent status code for the error kind.
func (e *Error) Status() int {
	if e == nil {
		return http.StatusOK
	}
	return StatusOf(e.Kind)
}

// StatusOf maps a Kind to its HTTP status code.
func StatusOf(k Kind) int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindInvalidToken, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotActive, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindGone:
		return http.StatusGone
	case KindConflict:
		return http.StatusConflict
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithField returns a copy of e carrying an extra field detail.
func (e *Error) WithField(field, reason string) *Error {
	if e == nil {
		return nil
	}
	fields := make(map[string]string, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[field] = reason
	return &Error{Kind: e.Kind, Message: e.Message, Fields: fields, Cause: e.Cause}
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// WithFields creates an error carrying field details.
func WithFields(kind Kind, message string, fields map[string]string) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

// KindOf reports the Kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// From converts any error into an *Error. Unknown errors become internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindInternal, "something went wrong, try again later")
}

func BadRequest(fields map[string]string) *Error {
	return WithFields(KindBadRequest, "bad request, check your inputs and try again", fields)
}

func InvalidToken(reason string) *Error {
	return WithFields(KindInvalidToken, "invalid or expired token", map[string]string{"token": reason})
}

func Unauthorized(fields map[string]string) *Error {
	return WithFields(KindUnauthorized, "unauthorized to get requested resource", fields)
}

func NotActive() *Error {
	return New(KindNotActive, "user is not active or has not completed validation process")
}

func WrongPassword() *Error {
	return WithFields(KindForbidden, "wrong password, check your input and try again", map[string]string{"password": "invalid credentials"})
}

func Forbidden(fields map[string]string) *Error {
	return WithFields(KindForbidden, "operation is not allowed", fields)
}

func NotFound(fields map[string]string) *Error {
	return WithFields(KindNotFound, "resource was not found in the database", fields)
}

func Gone(fields map[string]string) *Error {
	return WithFields(KindGone, "resource has been permanently deleted", fields)
}

func Conflict(fields map[string]string) *Error {
	return WithFields(KindConflict, "parameter already exists in the database", fields)
}

func ServiceUnavailable(err error, fields map[string]string) *Error {
	return &Error{
		Kind:    KindServiceUnavailable,
		Message: "requested service is unavailable, try again later",
		Fields:  fields,
		Cause:   err,
	}
}
