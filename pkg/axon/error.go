package axon

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is returned by RequestInterface.LimitedBody when the body
// exceeds the requested limit.
var ErrBodyTooLarge = errors.New("request body too large")

// HttpError represents an HTTP error with a specific status code and message
type HttpError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Internal   error  `json:"-"`
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("HTTP %d: %s: %v", e.StatusCode, e.Message, e.Internal)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the error that caused this response.
func (e *HttpError) Unwrap() error {
	return e.Internal
}

// WithInternal records the underlying error without exposing it to clients.
func (e *HttpError) WithInternal(err error) *HttpError {
	e.Internal = err
	return e
}

// NewHttpError creates a new HttpError with the given status code and message
func NewHttpError(statusCode int, message string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewHttpErrorWithDetails creates a new HttpError with additional details
func NewHttpErrorWithDetails(statusCode int, message string, details any) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
		Details:    details,
	}
}

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message)
}

// ErrBadRequestWithDetails creates a 400 Bad Request error with details
func ErrBadRequestWithDetails(message string, details any) *HttpError {
	return NewHttpErrorWithDetails(http.StatusBadRequest, message, details)
}

// ErrMethodNotAllowed creates a 405 Method Not Allowed error
func ErrMethodNotAllowed(message string) *HttpError {
	return NewHttpError(http.StatusMethodNotAllowed, message)
}

// ErrRequestEntityTooLarge creates a 413 Request Entity Too Large error
func ErrRequestEntityTooLarge(message string) *HttpError {
	return NewHttpError(http.StatusRequestEntityTooLarge, message)
}

// ErrUnsupportedMediaType creates a 415 Unsupported Media Type error
func ErrUnsupportedMediaType(message string) *HttpError {
	return NewHttpError(http.StatusUnsupportedMediaType, message)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message)
}

// AsHttpError converts any handler error into an HttpError, treating unknown
// errors as internal failures.
func AsHttpError(err error) *HttpError {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return ErrInternalServerError(http.StatusText(http.StatusInternalServerError)).WithInternal(err)
}
