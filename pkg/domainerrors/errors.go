// Package domainerrors defines the coded errors that cross service
// boundaries. Services return these (or wrap storage sentinels into them) and
// the HTTP layer translates codes to status codes in exactly one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. Codes are stable strings so they can be
// returned to callers and matched in tests.
type Code string

const (
	CodeBadRequest        Code = "bad_request"
	CodeNotFound          Code = "not_found"
	CodeIntegrityMismatch Code = "integrity_mismatch"
	CodeAlreadyLocked     Code = "already_locked"
	CodeConflict          Code = "conflict"
	CodeCriticalChange    Code = "critical_change_rejected"
	CodeUnauthorized      Code = "unauthorized"
	CodeInternal          Code = "internal"
)

// Error carries a code plus a human-readable message. Critical marks
// configuration edits rejected by the change guard so callers can prompt for
// a justification and resubmit the same payload.
type Error struct {
	Code     Code
	Message  string
	Critical bool
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a coded error.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewCritical builds a coded error flagged as a critical-change rejection.
func NewCritical(code Code, message string) Error {
	return Error{Code: code, Message: message, Critical: true}
}

// Is reports whether err is (or wraps) a domain error with the given code.
func Is(err error, code Code) bool {
	var de Error
	return errors.As(err, &de) && de.Code == code
}

// IsCritical reports whether err carries the critical-change flag.
func IsCritical(err error) bool {
	var de Error
	return errors.As(err, &de) && de.Critical
}

// ToHTTPStatus maps a code onto the equivalent HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeIntegrityMismatch, CodeCriticalChange:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyLocked, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
