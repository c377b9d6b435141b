package services

import (
	"errors"
	"fmt"

	"github.com/rkco/fuel-ledger/internal/models"
)

// Common service errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrDuplicate           = errors.New("duplicate record")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidAmount       = errors.New("payment amount must be greater than zero")
	ErrNoOutstandingOrders = errors.New("no outstanding orders for this party")
	ErrInvalidPartyType    = errors.New("party type must be customer or supplier")
	ErrPersistence         = errors.New("payment allocation could not be persisted")
)

// PersistenceError reports a write failure in the middle of an allocation.
// Completed lists the allocations that were committed before the failure;
// they are not rolled back.
type PersistenceError struct {
	OrderID   uint
	Completed []models.ReceiptAllocation
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.OrderID == 0 {
		return fmt.Sprintf("%v: receipt not recorded after %d allocations: %v", ErrPersistence, len(e.Completed), e.Err)
	}
	return fmt.Sprintf("%v: order %d after %d allocations: %v", ErrPersistence, e.OrderID, len(e.Completed), e.Err)
}

// Unwrap lets errors.Is match both ErrPersistence and the store error
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// validationError wraps ErrValidation with a field message
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
