package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrInvalidDateRange     = fmt.Errorf("%w: check-out must be after check-in", ErrValidation)
	ErrNotFound             = errors.New("not found")
	ErrRoomUnavailable      = errors.New("room unavailable")
	ErrReferenceExhausted   = errors.New("booking reference generation exhausted")
	ErrTransactionConflict  = errors.New("transaction conflict")
	ErrTransactionTimeout   = errors.New("transaction timeout")
	ErrOverpayment          = errors.New("payment exceeds outstanding balance")
	ErrRefundExceedsPayment = errors.New("refund exceeds original payment")
	ErrLedgerImmutable      = errors.New("ledger entries are append-only")
)

// ValidationError is a rejected input detected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientAvailabilityError names the room type that could not be satisfied.
type InsufficientAvailabilityError struct {
	RoomTypeID   int64
	RoomTypeName string
	Requested    int
	Available    int
	Shortfall    int
}

func (e *InsufficientAvailabilityError) Error() string {
	name := e.RoomTypeName
	if name == "" {
		name = fmt.Sprintf("room type %d", e.RoomTypeID)
	}
	return fmt.Sprintf("insufficient availability for %s: requested %d, available %d (short by %d)",
		name, e.Requested, e.Available, e.Shortfall)
}

// InvalidStatusTransitionError is returned by every state machine in the system.
type InvalidStatusTransitionError struct {
	Entity  string
	From    string
	To      string
	Allowed []string
}

func (e *InvalidStatusTransitionError) Error() string {
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("invalid %s status transition from %s to %s (allowed: %s)", e.Entity, e.From, e.To, allowed)
}
