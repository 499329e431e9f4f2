// Package apperr defines the error kinds surfaced by the manifest core.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindFetch      Kind = "fetch"
	KindFormat     Kind = "format"
	KindUpload     Kind = "upload"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
)

// Error is a classified failure. Status carries the remote HTTP status for
// fetch errors and is zero otherwise.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorKind lets callers classify without importing this package's type.
func (e *Error) ErrorKind() string {
	return string(e.Kind)
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err. An already classified error is returned unchanged.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Fetch builds a fetch error that remembers the remote status.
func Fetch(op string, status int, message string) *Error {
	return &Error{Kind: KindFetch, Op: op, Message: message, Status: status}
}

func Format(op, message string) *Error {
	return New(KindFormat, op, message)
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (Kind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus maps an error to the status an API handler should answer with.
func HTTPStatus(err error) int {
	var typed *Error
	if !errors.As(err, &typed) {
		return http.StatusInternalServerError
	}
	switch typed.Kind {
	case KindValidation, KindFormat:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindFetch:
		if typed.Status >= 400 && typed.Status < 600 {
			return typed.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
