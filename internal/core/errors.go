package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeIllegalOperation = "illegal_operation"
	ErrCodeClosePublic      = "close_public"
	ErrCodeEmptyPeer        = "empty_peer"
	ErrCodeChannelNotFound  = "channel_not_found"
	ErrCodeUnknownEvent     = "unknown_event"
)

var (
	// ErrIllegalOperation is the parent of every rejected channel operation.
	ErrIllegalOperation = errors.New("illegal channel operation")

	ErrClosePublic     = fmt.Errorf("%w: public channel cannot be closed", ErrIllegalOperation)
	ErrEmptyPeer       = fmt.Errorf("%w: peer identity is empty", ErrIllegalOperation)
	ErrChannelNotFound = fmt.Errorf("%w: channel not found", ErrIllegalOperation)
	ErrUnknownEvent    = errors.New("unknown inbound event kind")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so errors.Is keeps working on coded errors.
func (e *CoreError) Unwrap() error {
	return e.err
}

func coreError(code string, err error, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, err: err}
}

// ErrorCode returns the code of a CoreError in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
