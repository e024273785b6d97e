package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Common sentinel errors for quick checks
var (
	// ErrClosed is returned by operations on a client whose session was torn down.
	ErrClosed = errors.New("client closed")

	// ErrUnsubscribed is the terminal notification of a listener removed by Unsubscribe.
	ErrUnsubscribed = errors.New("unsubscribed")

	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the service rejects the credentials.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when request input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrTooManyRequests is returned when rate limit is exceeded.
	ErrTooManyRequests = errors.New("too many requests")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// TransportError represents a network or I/O failure while executing a request.
// The subscribe loop retries these with backoff.
type TransportError struct {
	*BaseError
	Op string
}

// NewTransportError creates a new transport error.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{
		BaseError: &BaseError{
			code:    CodeTransport,
			message: fmt.Sprintf("%s: transport failure", op),
			cause:   cause,
			stack:   captureStack(1),
		},
		Op: op,
	}
}

// DecodeError represents a malformed response. Index is the position of the
// offending envelope inside a batch, or -1 when the whole body is unusable.
type DecodeError struct {
	*BaseError
	Op    string
	Index int
}

// NewDecodeError creates a new batch-level decode error.
func NewDecodeError(op string, cause error) *DecodeError {
	return &DecodeError{
		BaseError: &BaseError{
			code:    CodeMalformed,
			message: fmt.Sprintf("%s: malformed response", op),
			cause:   cause,
			stack:   captureStack(1),
		},
		Op:    op,
		Index: -1,
	}
}

// NewEnvelopeDecodeError creates a decode error for one envelope of a batch.
func NewEnvelopeDecodeError(op string, index int, cause error) *DecodeError {
	return &DecodeError{
		BaseError: &BaseError{
			code:    CodeMalformed,
			message: fmt.Sprintf("%s: malformed envelope %d", op, index),
			cause:   cause,
			stack:   captureStack(1),
		},
		Op:    op,
		Index: index,
	}
}

// SigningError represents a credential or configuration problem that prevents
// a request from being signed. It is never retried.
type SigningError struct {
	*BaseError
}

// NewSigningError creates a new signing error.
func NewSigningError(message string, cause error) *SigningError {
	if message == "" {
		message = "request signing failed"
	}
	return &SigningError{
		BaseError: &BaseError{
			code:    CodeSigning,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// ServerError represents a request the service answered with an error status.
// Recoverable errors (rate limits, 5xx) are retried with backoff; the others
// are surfaced and pause the subscribe loop until the channel set changes.
type ServerError struct {
	*BaseError
	StatusCode  int
	Service     string
	Recoverable bool
	RetryAfter  time.Duration
}

// NewServerError classifies an error status returned by the service.
func NewServerError(statusCode int, service, message string) *ServerError {
	if message == "" {
		message = fmt.Sprintf("server returned status %d", statusCode)
	}
	code, recoverable := classifyStatus(statusCode)
	return &ServerError{
		BaseError: &BaseError{
			code:    code,
			message: message,
			stack:   captureStack(1),
		},
		StatusCode:  statusCode,
		Service:     service,
		Recoverable: recoverable,
	}
}

// WithRetryAfter sets the delay the service asked for.
func (e *ServerError) WithRetryAfter(d time.Duration) *ServerError {
	e.RetryAfter = d
	return e
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s (status %d, service %s)", e.message, e.StatusCode, e.Service)
	}
	return fmt.Sprintf("%s (status %d)", e.message, e.StatusCode)
}

// classifyStatus maps an HTTP status onto an error code and whether retrying
// the same request can succeed.
func classifyStatus(status int) (string, bool) {
	switch {
	case status == 429:
		return CodeRateLimit, true
	case status == 408:
		return CodeTimeout, true
	case status >= 500:
		return CodeServiceUnavailable, true
	case status == 401:
		return CodeUnauthorized, false
	case status == 403:
		return CodeForbidden, false
	case status == 404:
		return CodeNotFound, false
	default:
		return CodeInvalidArgument, false
	}
}

// RegistryError represents a listener registry misuse: a duplicate or unknown
// handle. It is reported to the caller of that operation only.
type RegistryError struct {
	*BaseError
	Token  string
	Reason string
}

// NewRegistryError creates a new registry error.
func NewRegistryError(code, token, reason string) *RegistryError {
	message := "registry: " + reason
	if token != "" {
		message = fmt.Sprintf("registry: %s: %s", reason, token)
	}
	return &RegistryError{
		BaseError: &BaseError{
			code:    code,
			message: message,
			stack:   captureStack(1),
		},
		Token:  token,
		Reason: reason,
	}
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise the code is INTERNAL.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	code := CodeInternal
	if e, ok := err.(Error); ok {
		code = e.Code()
	}
	return &BaseError{
		code:    code,
		message: message,
		cause:   err,
		stack:   captureStack(1),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}
