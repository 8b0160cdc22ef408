package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Simplici0/partpricing/internal/pricing"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// StorageErrorMessage describes database failures.
	StorageErrorMessage = "storage operation failed"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// BadRequest wraps a client error; the error text is safe to show.
func BadRequest(err error) *AppError {
	return New(err, http.StatusBadRequest, err.Error())
}

// WrapStorage wraps a database error with a consistent status and message.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusInternalServerError, StorageErrorMessage)
}

// FromPricing maps pricing configuration and data errors to 400 responses and
// anything else to a 500.
func FromPricing(err error) *AppError {
	if err == nil {
		return nil
	}

	var app *AppError
	if errors.As(err, &app) {
		return app
	}

	var cfgErr *pricing.ConfigError
	var dataErr *pricing.DataError
	if errors.As(err, &cfgErr) || errors.As(err, &dataErr) {
		return BadRequest(err)
	}
	return New(err, http.StatusInternalServerError, SystemErrorMessage)
}

// Is reports whether the target matches the underlying error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
