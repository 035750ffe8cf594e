// Package apperr defines the error taxonomy shared by all three services.
package apperr

import (
	"errors"
	"net/http"
)

// Code classifies an error for HTTP mapping and for cross-service
// translation. Peer codes are produced by the inter-service client and are
// usually re-wrapped by the caller before reaching the end user.
type Code string

const (
	CodeUnauthenticated Code = "unauthenticated"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeInvalidArgument Code = "invalid_argument"
	CodeInvalidState    Code = "invalid_state"
	CodePeerUnavailable Code = "peer_unavailable"
	CodePeerError       Code = "peer_error"
	CodeGone            Code = "gone"
)

// Error carries a taxonomy code and the message shown to the caller.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Unauthenticated(message string) *Error { return New(CodeUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(CodeForbidden, message) }
func NotFound(message string) *Error        { return New(CodeNotFound, message) }
func InvalidArgument(message string) *Error { return New(CodeInvalidArgument, message) }
func InvalidState(message string) *Error    { return New(CodeInvalidState, message) }
func PeerUnavailable(message string) *Error { return New(CodePeerUnavailable, message) }
func PeerError(message string) *Error       { return New(CodePeerError, message) }
func Gone(message string) *Error            { return New(CodeGone, message) }

// CodeOf returns the taxonomy code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool { return CodeOf(err) == code }

// StatusCode maps an error to its HTTP status. Unclassified errors are
// internal server errors.
func StatusCode(err error) int {
	switch CodeOf(err) {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeInvalidState:
		return http.StatusConflict
	case CodePeerUnavailable:
		return http.StatusServiceUnavailable
	case CodePeerError:
		return http.StatusBadGateway
	case CodeGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
