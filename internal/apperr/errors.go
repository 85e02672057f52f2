// Package apperr defines the coded errors shared by the gateway, the view
// state machines and the HTTP handlers.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeUnavailable       Code = "UNAVAILABLE"
	CodeValidation        Code = "VALIDATION_FAILED"
	CodeWriteFailed       Code = "WRITE_FAILED"
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeSessionLoading    Code = "SESSION_LOADING"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeInternal          Code = "INTERNAL"
)

// MetaPartialSave is set on a WRITE_FAILED error when the first half of
// a two-phase write has already been persisted.
const MetaPartialSave = "partial_save"

// Error is a coded failure. Message is safe to show to the user.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code, so errors.Is(err, apperr.NotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func WithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}

// Sentinels for errors.Is.
var (
	NotFound          = New(CodeNotFound, "not found")
	PermissionDenied  = New(CodePermissionDenied, "permission denied")
	Unavailable       = New(CodeUnavailable, "unavailable")
	Validation        = New(CodeValidation, "validation failed")
	WriteFailed       = New(CodeWriteFailed, "write failed")
	Unauthenticated   = New(CodeUnauthenticated, "login required")
	SessionLoading    = New(CodeSessionLoading, "session loading")
	InvalidTransition = New(CodeInvalidTransition, "invalid transition")
)

// CodeOf returns the code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsFallback reports whether a read failure should be answered with the
// bundled demo dataset.
func IsFallback(err error) bool {
	switch CodeOf(err) {
	case CodePermissionDenied, CodeUnavailable:
		return true
	}
	return false
}

// IsPartialSave reports whether err is a write failure that left the
// first write committed.
func IsPartialSave(err error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Code != CodeWriteFailed {
		return false
	}
	return e.Metadata[MetaPartialSave] == "true"
}

func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeWriteFailed:
		return http.StatusBadGateway
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeSessionLoading:
		return http.StatusAccepted
	case CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body. Unauthenticated errors also
// carry the login prompt.
func Respond(c *gin.Context, err error) {
	code := CodeOf(err)
	msg := "internal error"
	var e *Error
	if errors.As(err, &e) {
		msg = e.Error()
	}
	body := gin.H{"error": msg, "code": code}
	if code == CodeUnauthenticated {
		body["prompt"] = "login_required"
		body["redirect"] = "/auth"
	}
	if IsPartialSave(err) {
		body["partial_save"] = true
	}
	c.JSON(HTTPStatus(err), body)
}
