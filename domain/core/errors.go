package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrHypothesisNotFound = fmt.Errorf("%w: hypothesis", ErrNotFound)

	// Validation errors
	ErrInsufficientData  = errors.New("insufficient data for analysis")
	ErrLengthMismatch    = errors.New("series must have equal length")
	ErrUnknownTestType   = errors.New("unknown test type")
	ErrUnknownMethod     = errors.New("unknown correlation method")
	ErrMissingPriceField = errors.New("market data must have a close or price field")

	// Computation errors - numerical failures inside a test procedure.
	// These degrade to neutral results rather than failing the hypothesis.
	ErrComputationFailed = errors.New("statistical computation failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInsufficientDataError(what string, got, need int) error {
	return fmt.Errorf("%w: %s has %d samples, need at least %d", ErrInsufficientData, what, got, need)
}

func NewUnknownTestTypeError(testType string) error {
	return fmt.Errorf("%w: %q", ErrUnknownTestType, testType)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrUnknownTestType) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrMissingPriceField)
}

func IsComputationError(err error) bool {
	return errors.Is(err, ErrComputationFailed)
}
