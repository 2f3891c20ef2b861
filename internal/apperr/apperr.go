// Package apperr is the error taxonomy shared by services and handlers.
package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindAuthentication     Kind = "authentication"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindStorage            Kind = "storage"
	KindStorageUnavailable Kind = "storage_unavailable"
)

// Error carries a Kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrAuthentication     = &Error{Kind: KindAuthentication}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrStorage            = &Error{Kind: KindStorage}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
)

func Validation(format string, args ...any) error {
	return errors.WithStack(&Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)})
}

func Authentication(msg string) error {
	return errors.WithStack(&Error{Kind: KindAuthentication, Message: msg})
}

func NotFound(format string, args ...any) error {
	return errors.WithStack(&Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)})
}

func Conflict(format string, args ...any) error {
	return errors.WithStack(&Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)})
}

// Storage wraps an underlying store failure. Errors that already carry a
// kind are returned unchanged.
func Storage(err error, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return errors.WithStack(&Error{Kind: KindStorage, Message: msg, Err: err})
}

func StorageUnavailable(err error, msg string) error {
	return errors.WithStack(&Error{Kind: KindStorageUnavailable, Message: msg, Err: err})
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
