package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Every typed error below unwraps to exactly one of these,
// so callers can branch with errors.Is and read details with errors.As.
var (
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrNotFound               = errors.New("not found")
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")
	ErrAlreadyReturned        = errors.New("invoice already returned")
	ErrUnauthorized           = errors.New("unauthorized")
)

// FieldError is one failed input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed constraint of an input. Error() reports
// only the first one.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// First returns the first failing field, or an empty FieldError.
func (e *ValidationError) First() FieldError {
	if len(e.Fields) == 0 {
		return FieldError{}
	}
	return e.Fields[0]
}

// newValidationError builds a single-field ValidationError.
func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// InsufficientStockError reports a sale or return quantity outside the stock's bounds.
type InsufficientStockError struct {
	StockID   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.StockID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFoundError reports a missing (or not owned) entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateInvoiceNumberError reports an invoice number already used by the owner.
type DuplicateInvoiceNumberError struct {
	Number int
}

func (e *DuplicateInvoiceNumberError) Error() string {
	return fmt.Sprintf("invoice number %d is already in use", e.Number)
}

func (e *DuplicateInvoiceNumberError) Unwrap() error { return ErrDuplicateInvoiceNumber }

// AlreadyReturnedError reports an operation on an invoice that is already RETURNED.
type AlreadyReturnedError struct {
	InvoiceID string
}

func (e *AlreadyReturnedError) Error() string {
	return fmt.Sprintf("invoice %s has already been returned", e.InvoiceID)
}

func (e *AlreadyReturnedError) Unwrap() error { return ErrAlreadyReturned }

// UnauthorizedError reports a missing or invalid session.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// ErrorKind names the taxonomy bucket of err, for adapters that report kinds
// instead of Go errors. Unknown errors are "INTERNAL".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateInvoiceNumber):
		return "DUPLICATE_INVOICE_NUMBER"
	case errors.Is(err, ErrAlreadyReturned):
		return "ALREADY_RETURNED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	default:
		return "INTERNAL"
	}
}

// joinFieldMessages renders all field errors, used for log lines.
func joinFieldMessages(fields []FieldError) string {
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return strings.Join(msgs, "; ")
}
