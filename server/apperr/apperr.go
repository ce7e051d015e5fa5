// Package apperr tags errors with the kind of failure that produced them, so
// callers can map them to a response without inspecting error text.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Conflict
	Forbidden
	Transport
	Persistence
)

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Validation:  "validation",
	NotFound:    "not_found",
	Conflict:    "conflict",
	Forbidden:   "forbidden",
	Transport:   "transport",
	Persistence: "persistence",
}

func (k Kind) String() string {
	return kindNames[k]
}

// HTTPStatus is the response code used when an error of kind k ends a request
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation, Conflict:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}

	if e.Message == "" {
		return e.Err.Error()
	}

	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Cause() error {
	return e.Err
}

func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: errors.Errorf(format, args...).Error()}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Message: message, Err: errors.WithStack(err)}
}

// KindOf returns the kind of the first tagged error in err's chain
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the message that can be shown to a client. Details of
// persistence and unknown errors are only exposed when verbose is set.
func PublicMessage(err error, verbose bool) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		if verbose {
			return err.Error()
		}
		return "internal server error"
	}

	switch appErr.Kind {
	case Persistence, Unknown, Transport:
		if verbose {
			return appErr.Error()
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		return "internal server error"
	}

	return appErr.Message
}
