// Package domainerrors provides coded errors shared by services and transport.
//
// Services construct these directly for domain failures and translate store
// sentinels (pkg/platform/sentinel) into them at the service boundary. The
// HTTP layer maps codes to status codes with ToHTTPStatus; nothing below the
// transport layer knows about HTTP.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeDuplicateProperty rejects registering a property id twice.
	// Non-retryable with the same arguments.
	CodeDuplicateProperty Code = "duplicate_property"
	// CodeCapacityExceeded rejects minting past an artifact's max supply.
	// Supply only grows, so this never clears for the same request.
	CodeCapacityExceeded Code = "capacity_exceeded"
	// CodeUnauthorized rejects callers lacking registry or administrator
	// authority over the target.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound reports a lookup miss.
	CodeNotFound Code = "not_found"

	CodeValidation         Code = "validation"
	CodeBadRequest         Code = "bad_request"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause for errors.Is /
// errors.As chains while keeping the code addressable.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code onto an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeDuplicateProperty, CodeCapacityExceeded:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
