// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotConnected     = errors.New("session not connected")
	ErrNotLoggedIn      = errors.New("session not logged in")
	ErrSessionLost      = errors.New("session lost: reconnection budget exhausted")
	ErrLoginRejected    = errors.New("login rejected")
	ErrOrderRejected    = errors.New("order rejected")
	ErrPositionNotFound = errors.New("position not found")
	ErrConnectionFailed = errors.New("connection failed")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrJournalClosed    = errors.New("trade journal closed")
)

// SessionError represents a failure of the streaming session, carrying
// the server-provided reason when one exists.
type SessionError struct {
	Code    int
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session error [%d]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("session error [%d]: %s", e.Code, e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(code int, message string, err error) *SessionError {
	return &SessionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// OrderError represents an error related to order submission.
type OrderError struct {
	Code   string
	Side   string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error %s %s: %s: %v", e.Side, e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error %s %s: %s", e.Side, e.Code, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(code, side, reason string, err error) *OrderError {
	return &OrderError{
		Code:   code,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}
