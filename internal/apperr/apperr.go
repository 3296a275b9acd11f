// Package apperr defines the typed failure outcomes surfaced by the core
// services. Every failure carries a kind, an HTTP-like severity, a stable
// machine-readable code and a human-readable message; callers dispatch on
// the kind instead of matching error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInternal
)

// Error is the single failure type used across services.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Err     error // wrapped cause, never shown to external callers
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes two app errors equal when their codes match, so services can use
// errors.Is against the sentinel constructors below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func newError(kind Kind, status int, code, message string) *Error {
	return &Error{Kind: kind, Status: status, Code: code, Message: message}
}

// Validation reports malformed input. All violated rules are joined into one
// message so the caller sees every failing rule, not just the first.
func Validation(rules []string) *Error {
	return newError(KindValidation, http.StatusBadRequest, "VALIDATION_ERROR", strings.Join(rules, ", "))
}

func EmailExists() *Error {
	return newError(KindConflict, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
}

func WorkspaceNameExists() *Error {
	return newError(KindConflict, http.StatusConflict, "WORKSPACE_NAME_EXISTS", "You already have a workspace with this name")
}

func AlreadyMember() *Error {
	return newError(KindConflict, http.StatusConflict, "ALREADY_MEMBER", "User is already a member of this workspace")
}

func AlreadyExists(message string) *Error {
	return newError(KindConflict, http.StatusConflict, "ALREADY_EXISTS", message)
}

func AlreadyProcessed() *Error {
	return newError(KindConflict, http.StatusConflict, "ALREADY_PROCESSED", "Invitation has already been processed")
}

// InvalidCredentials is deliberately uninformative about which factor failed.
func InvalidCredentials() *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
}

func InvalidRefreshToken() *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
}

func InvalidToken() *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid")
}

func TokenExpired() *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired")
}

func Forbidden(message string) *Error {
	return newError(KindForbidden, http.StatusForbidden, "FORBIDDEN", message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", message)
}

func UserNotFound() *Error {
	return newError(KindNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User with that email not found")
}

func WorkspaceNotFound() *Error {
	return newError(KindNotFound, http.StatusNotFound, "WORKSPACE_NOT_FOUND", "Workspace not found")
}

// Internal wraps an unrecognized infrastructure failure. The cause stays
// attached for logs but the outward message carries no internal detail.
func Internal(err error) *Error {
	e := newError(KindInternal, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	e.Err = err
	return e
}

// From returns err as *Error, classifying unrecognized errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an app error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == kind
}
