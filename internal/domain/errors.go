package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete domain errors wrap one of these so callers can
// classify a failure with errors.Is without knowing every sentinel.
var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorage          = errors.New("storage error")
	ErrNotImplemented   = errors.New("not implemented")
)

var (
	ErrInvalidProductName  = newKindError(ErrValidation, "product name is required")
	ErrInvalidProductPrice = newKindError(ErrValidation, "product price must be zero or greater")
	ErrInvalidProductStock = newKindError(ErrValidation, "product stock must be zero or greater")
	ErrStockOverflow       = newKindError(ErrValidation, "stock increase exceeds the maximum stock level")
	ErrInsufficientStock   = newKindError(ErrInvalidOperation, "cannot reduce stock below zero")
)

// kindError carries a human readable message and unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// NewStorageError wraps a backend failure so it classifies as ErrStorage.
func NewStorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
