// Package apperror defines the error taxonomy shared by services and handlers.
//
// Services return *AppError values wrapping one of the sentinel errors below;
// handlers translate them to HTTP statuses with errors.Is. The Message field
// carries the human-readable text returned to the client.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidAssertion  = errors.New("invalid identity assertion")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUnknownUser       = errors.New("unknown user")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInternal          = errors.New("internal error")
)

// AppError pairs a taxonomy sentinel with a client-facing message.
type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id uint) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %d not found", resource, id),
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func InsufficientStock(productID uint) *AppError {
	return &AppError{
		Err:     ErrInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %d", productID),
	}
}

func InvalidAssertion(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidAssertion,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrInternal, err),
		Message: "internal server error",
	}
}
