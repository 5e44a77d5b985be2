package domain

import (
	"errors"
	"fmt"
)

var (
	// Validation errors
	ErrEmptyText    = errors.New("task text cannot be empty")
	ErrEmptyID      = errors.New("task ID is required")
	ErrInvalidOrder = errors.New("invalid order batch")

	// Business logic errors
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already exists")

	// Store errors
	ErrInitialization = errors.New("store initialization failed")
	ErrStore          = errors.New("store failure")
)

// StoreError is a lower-level I/O, constraint or transaction failure.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports every StoreError as ErrStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
