package service

import (
	"errors"
	"fmt"
	"strings"

	"tailorshop/internal/repository"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks bad input rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing customer, salesperson, order, catalogue or inventory row.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock marks a stock check that would drive availability below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrAlreadyCancelled marks a cancellation of an order that is already cancelled.
	ErrAlreadyCancelled = errors.New("order already cancelled")
	// ErrSecondaryPhase marks a committed order whose relations could not be completed.
	ErrSecondaryPhase = errors.New("order relations not fully processed")
	// ErrConflict marks a write that collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrTransactionBusy marks a transaction slot that did not free up within the start-wait.
	ErrTransactionBusy = errors.New("transaction slot busy")
)

type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in a request
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type NotFoundError struct {
	Entity string `json:"entity"`
	Key    string `json:"key"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type InsufficientStockError struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type AlreadyCancelledError struct {
	InvoiceID string `json:"invoice_id"`
}

func (e *AlreadyCancelledError) Error() string {
	return fmt.Sprintf("order %s is already cancelled", e.InvoiceID)
}

func (e *AlreadyCancelledError) Unwrap() error { return ErrAlreadyCancelled }

// SecondaryPhaseError is returned alongside a committed order whose follow-up work failed twice.
type SecondaryPhaseError struct {
	InvoiceID string
	Attempts  int
	Cause     error
}

func (e *SecondaryPhaseError) Error() string {
	return fmt.Sprintf("order %s committed but relations failed after %d attempts: %v", e.InvoiceID, e.Attempts, e.Cause)
}

func (e *SecondaryPhaseError) Unwrap() []error { return []error{ErrSecondaryPhase, e.Cause} }

type ConflictError struct {
	Entity string `json:"entity"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Entity, e.Key, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// notFoundOr translates gorm.ErrRecordNotFound into a NotFoundError and passes anything else through
func notFoundOr(err error, entity, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, Key: key}
	}
	return err
}

// txErr maps transaction manager failures onto the service taxonomy
func txErr(err error) error {
	if errors.Is(err, repository.ErrTxSlotTimeout) {
		return fmt.Errorf("%w: %v", ErrTransactionBusy, err)
	}
	return err
}
