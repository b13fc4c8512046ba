// Package domainerrors provides coded errors for custos.
//
// Services return these so transports can translate failures into
// specific, caller-distinguishable responses without string matching.
// Stores return sentinel errors (pkg/platform/sentinel) instead;
// services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeUnauthorized: the caller identity is not permitted to perform
	// the operation (wrong authority, not the current owner).
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden: the caller is authenticated but the surface itself
	// is off limits (admin-only endpoints).
	CodeForbidden Code = "forbidden"

	// CodeNotFound: the referenced record does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict: the operation collides with existing state, e.g.
	// re-registration of an already registered product id.
	CodeConflict Code = "conflict"

	// CodeValidation: the input fails a domain validation rule.
	CodeValidation Code = "validation"

	// CodeInvalidInput: the input is malformed at a trust boundary
	// (unparseable ids, bad UUIDs).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest: the request itself is malformed (undecodable body).
	CodeBadRequest Code = "bad_request"

	// CodeInvariantViolation: an aggregate invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeTimeout: the operation was abandoned before completion.
	CodeTimeout Code = "timeout"

	// CodeInternal: an unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It wraps an optional cause so callers
// can still unwrap infrastructure errors with errors.Is/As.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the classification of the error.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human-readable message without the cause chain.
// Transports use it for error descriptions so internal details never
// leak through wrapped causes.
func (e *Error) Message() string {
	return e.message
}

// HasCode reports whether err or any error in its chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is reports whether the outermost coded error carries code. Unlike
// HasCode it does not search the chain; use it when the immediate
// classification matters.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// CodeOf returns the outermost code, or CodeInternal when err carries
// no classification.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
