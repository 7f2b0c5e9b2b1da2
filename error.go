package dossier

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	ERATELIMITED = "rate_limited"
	EUNREACHABLE = "unreachable"
	EREJECTED    = "rejected"
	EPARSE       = "parse_failure"
	EINTEGRITY   = "integrity_mismatch"
	EINTERNAL    = "internal"
)

// Error represents an application-specific error. Code is machine-readable,
// Message is suitable for display to the end user.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("dossier error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors return the raw error text.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsRetryable reports whether err is a transient remote failure.
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case ERATELIMITED, EUNREACHABLE:
		return true
	}
	return false
}
