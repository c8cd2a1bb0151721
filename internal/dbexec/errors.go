package dbexec

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout reports that no reply arrived within the caller's window.
	// The request may still execute.
	ErrTimeout = errors.New("database request timed out")
	// ErrClosed reports that the gateway is shutting down or already stopped.
	ErrClosed = errors.New("database gateway closed")
	// ErrDatabase matches every *DatabaseError via errors.Is.
	ErrDatabase = errors.New("database error")
)

// DatabaseError describes a request the worker failed to execute.
type DatabaseError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *DatabaseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("database %s failed: %s", e.Kind, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrDatabase as a match so callers do not need errors.As for the
// common check.
func (e *DatabaseError) Is(target error) bool {
	return target == ErrDatabase
}

func newDatabaseError(kind Kind, err error) *DatabaseError {
	return &DatabaseError{Kind: kind, Message: err.Error(), Err: err}
}
