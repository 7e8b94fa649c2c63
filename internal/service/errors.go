package service

import (
	"errors"
	"net/http"
)

// Error is a failure the caller can act on. Code is the HTTP status the
// transport layer answers with.
type Error struct {
	Code    int
	Message string
	// Persisted is set when state was written before the failure happened,
	// e.g. the account exists but its verification mail bounced
	Persisted bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func badRequest(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

func unauthorized(msg string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: msg}
}

func forbidden(msg string) *Error {
	return &Error{Code: http.StatusForbidden, Message: msg}
}

func notFound(msg string) *Error {
	return &Error{Code: http.StatusNotFound, Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Code: http.StatusConflict, Message: msg}
}

// inconsistent marks a broken invariant between stored records
func inconsistent(msg string) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg}
}

func mailUndelivered(msg string, err error) *Error {
	return &Error{Code: http.StatusBadGateway, Message: msg, Persisted: true, Err: err}
}

// StatusOf returns the status carried by err, or 0 when err is not an *Error
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return 0
}
