package client

import (
	"fmt"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

// ClientError reports a client that could not be built from its config or
// options. It carries the taxonomy code of its cause, so errors.GetErrorCode
// and errors.ShouldRetry see through it.
type ClientError struct {
	Op     string // "new", or the option being applied
	Reason string
	Err    error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Code returns the cause's code. An unclassified cause is a config mistake.
func (e *ClientError) Code() string {
	switch code := errors.GetErrorCode(e.Err); code {
	case errors.CodeOK, errors.CodeInternal:
		return errors.CodeValidation
	default:
		return code
	}
}

// Message returns the reason without the cause.
func (e *ClientError) Message() string {
	return e.Reason
}

// NewClientError creates a ClientError for op.
func NewClientError(op, reason string, err error) *ClientError {
	return &ClientError{Op: op, Reason: reason, Err: err}
}
