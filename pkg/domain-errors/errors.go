// Package domainerrors carries typed error codes across service boundaries.
//
// Services return *Error values so transports can map them to status codes without
// string matching. Stores should not import this package; they return the sentinel
// errors in pkg/platform/sentinel and services translate them.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is a stable, client-visible error identifier.
type Code string

const (
	CodeBadRequest          Code = "bad_request"
	CodeValidation          Code = "validation_error"
	CodeInvalidInput        Code = "invalid_input"
	CodeUnauthorized        Code = "unauthorized"
	CodeForbidden           Code = "forbidden"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeTooManyRequests     Code = "too_many_requests"
	CodeInvariantViolation  Code = "invariant_violation"
	CodeTimeout             Code = "timeout"
	CodeUpstreamUnavailable Code = "upstream_unavailable"
	CodeIndexWriteFailed    Code = "index_write_failed"
	CodeInternal            Code = "internal_error"
)

// Error is a coded error with a safe, client-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
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

// New creates a coded error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is / errors.As.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the client-facing message of the outermost coded error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// HTTPStatus maps a code to an HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
