package httpclient

import (
	"bytes"
	"errors"
	"fmt"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	// ErrCodeValidation covers 4xx responses and requests that could not be built.
	ErrCodeValidation
	ErrCodeServer
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is 0 for transport-level failures.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewValidationError creates a client-side validation error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode converts a status code into a typed error, or nil
// for 2xx. 429 and 5xx are retryable.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	msg := fmt.Sprintf("HTTP %d", statusCode)
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if len(trimmed) > 512 {
			trimmed = trimmed[:512]
		}
		msg += ": " + string(trimmed)
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 429:
		return &Error{StatusCode: statusCode, Code: ErrCodeServer, Message: msg, Retryable: true, Body: body}
	case statusCode >= 400 && statusCode < 500:
		return &Error{StatusCode: statusCode, Code: ErrCodeValidation, Message: msg, Body: body}
	default:
		return &Error{StatusCode: statusCode, Code: ErrCodeServer, Message: msg, Retryable: statusCode >= 500, Body: body}
	}
}

// IsRetryable reports whether err is a retryable client error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// ToAppError maps a client error from a call to service onto the
// application error taxonomy. Errors that are not *Error are returned
// unchanged.
func ToAppError(service string, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	switch e.Code {
	case ErrCodeTimeout:
		return apperrors.Timeout(service).WithCause(e)
	case ErrCodeConnection:
		return apperrors.ConnectionFailed(service).WithCause(e)
	case ErrCodeValidation:
		if e.StatusCode == 0 {
			return apperrors.Internal(e)
		}
		return apperrors.InvalidInput(service, e.Message).WithCause(e)
	default:
		appErr := apperrors.ExternalServiceError(service, e)
		appErr.Retryable = e.Retryable
		return appErr
	}
}
