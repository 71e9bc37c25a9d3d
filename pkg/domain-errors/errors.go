// Package domainerrors provides the error taxonomy shared by all domain
// services. Errors carry a Code so transport layers can translate them to
// HTTP statuses without inspecting message text.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for propagation and HTTP translation.
type Code string

const (
	// CodeValidation marks client input that failed domain validation.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks malformed primitive values (enums, ids).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks unparseable or structurally invalid requests.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or invalid caller credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller acting outside their rights.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing aggregate or record.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a concurrent-update or uniqueness conflict.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks a domain invariant breach detected by a
	// model constructor or transition guard.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeDispatchPartial marks a notification fan-out that failed after the
	// triggering aggregate was already persisted. Retryable.
	CodeDispatchPartial Code = "dispatch_partial"
	// CodeTimeout marks an operation cancelled by deadline.
	CodeTimeout Code = "timeout"
	// CodeInternal marks unexpected failures that must not leak detail.
	CodeInternal Code = "internal"
)

// Error is the concrete domain error. Wrapped causes are preserved for
// errors.Is/As while the Code drives caller behavior.
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

// Is matches another domain error by code and message, so errors.Is can
// compare against a freshly constructed target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a domain error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err
// returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is shorthand for HasCode, matching the call-site reading
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost domain code, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its transport status. Unknown codes map to 500
// so new codes fail safe.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeDispatchPartial:
		return http.StatusAccepted
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
