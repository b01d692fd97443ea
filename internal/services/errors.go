package services

import (
	"database/sql"
	"errors"
	"fmt"
)

// Error kinds. Handlers classify with errors.Is against these.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadCredentials = errors.New("invalid credentials")
)

// Error is a classified error with a client-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Validationf builds an ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return newErr(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrInvalidPaymentMethod = newErr(ErrValidation, "Only Cash on Delivery is available.")
	ErrInvalidQuantity      = newErr(ErrValidation, "Quantity must be at least 1")
	ErrEmptyCart            = newErr(ErrValidation, "Cart is empty")
	ErrInsufficientStock    = newErr(ErrConflict, "Insufficient stock")
	ErrDuplicateRequest     = newErr(ErrConflict, "Duplicate checkout request")
	ErrAlreadyExists        = newErr(ErrConflict, "Username or email already exists")
	errInvalidLogin         = newErr(ErrBadCredentials, "Invalid credentials")
)

// InsufficientStockError names the first product whose stock could not cover
// the requested quantity.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product ID %d", e.ProductID)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// notFound maps a repository miss to ErrNotFound with msg, passing other errors through.
func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return newErr(ErrNotFound, msg)
	}
	return err
}
