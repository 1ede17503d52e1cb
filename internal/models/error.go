package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeRemoteError       = "REMOTE_ERROR"
	ErrCodeBrokerUnavailable = "BROKER_UNAVAILABLE"
	ErrCodeInvalidSession    = "INVALID_SESSION"
	ErrCodeNoActiveSession   = "NO_ACTIVE_SESSION"
	ErrCodeDecodeError       = "DECODE_ERROR"
	ErrCodePartialBatch      = "PARTIAL_BATCH"
	ErrCodeNotInitialized    = "NOT_INITIALIZED"
)

var (
	// ErrTimeout is returned when the plugin does not answer a request in time.
	ErrTimeout = errors.New("request timed out")

	// ErrBrokerUnavailable is returned when the broker has shut down or the
	// server cannot be reached.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrInvalidSession is returned for a chunk or finalize that names a
	// session other than the active one.
	ErrInvalidSession = errors.New("invalid session ID")
)

// RemoteError carries the error string the plugin reported. Error returns
// it unchanged so it can be shown to the user as-is.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// PartialBatchError reports the operations of a sync batch that the plugin
// could not apply. The rest of the batch was applied.
type PartialBatchError struct {
	Failed []OperationError
}

func (e *PartialBatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Path, f.Error))
	}
	return fmt.Sprintf("%d operations failed: %s", len(e.Failed), strings.Join(parts, "; "))
}

// Err converts an error response received over HTTP back into the error
// it was produced from, so callers can keep using errors.Is and errors.As.
func (r ErrorResponse) Err() error {
	switch r.Code {
	case ErrCodeTimeout:
		return fmt.Errorf("%s: %w", r.Error, ErrTimeout)
	case ErrCodeBrokerUnavailable:
		return fmt.Errorf("%s: %w", r.Error, ErrBrokerUnavailable)
	case ErrCodeInvalidSession:
		return ErrInvalidSession
	case ErrCodeRemoteError:
		return &RemoteError{Message: r.Error}
	}
	if r.Code == "" {
		return errors.New(r.Error)
	}
	return fmt.Errorf("%s (%s)", r.Error, r.Code)
}
