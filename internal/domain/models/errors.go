package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; the structured types below carry the details.
var (
	ErrValidation            = errors.New("validation failed")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNotFound              = errors.New("record not found")
	ErrRemoteStore           = errors.New("remote store unavailable")
	ErrPartialFailure        = errors.New("operation partially completed")
)

// ValidationError reports malformed or missing input, rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError for a single field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError reports a withdrawal exceeding the current balance.
type InsufficientFundsError struct {
	Available Money
	Requested Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available.String(), e.Requested.String())
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientInventoryError reports a deduction exceeding available quantity.
type InsufficientInventoryError struct {
	BatchID   string
	PartType  string
	Available int
	Requested int
}

func (e *InsufficientInventoryError) Error() string {
	if e.PartType != "" {
		return fmt.Sprintf("insufficient inventory: batch %s part %s has %d, requested %d",
			e.BatchID, e.PartType, e.Available, e.Requested)
	}
	return fmt.Sprintf("insufficient inventory: batch %s has %d, requested %d",
		e.BatchID, e.Available, e.Requested)
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// NotFoundError reports a missing referenced record.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s not found", e.Collection, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// RemoteStoreError wraps a transient persistence failure.
type RemoteStoreError struct {
	Collection string
	Op         string
	Err        error
}

func (e *RemoteStoreError) Error() string {
	return fmt.Sprintf("remote store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *RemoteStoreError) Unwrap() error { return ErrRemoteStore }

// PartialFailureError reports a multi-step operation that completed some but
// not all of its steps. Completed lists the step names that did apply so the
// caller can reconcile; StepErrors keeps the individual failures.
type PartialFailureError struct {
	Operation  string
	Completed  []string
	StepErrors map[string]error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially completed: %d step(s) applied, %d failed",
		e.Operation, len(e.Completed), len(e.StepErrors))
}

func (e *PartialFailureError) Unwrap() error { return ErrPartialFailure }
