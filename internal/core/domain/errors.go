package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyExists signals a create for an identity already present.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound signals an update, delete, or lookup of a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals an entity failing structural constraints,
	// caught before any repository call.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials signals a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTxNotStarted and ErrTxClosed are the illegal state transitions of
	// a change context, always wrapped in a TxError.
	ErrTxNotStarted = errors.New("transaction not started")
	ErrTxClosed     = errors.New("transaction already closed")
)

// TxError wraps a transaction-manager failure or an illegal
// transaction-state transition with the operation that raised it.
type TxError struct {
	Op  string
	Err error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }
