package watchlist

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation = errors.New("validation failed")

	// Store errors
	ErrWatchlistNotFound = errors.New("watchlist not found")
	ErrItemNotFound      = errors.New("watchlist item not found")

	// Sampling errors
	ErrUnknownSector   = errors.New("sector not found")
	ErrEmptyCandidates = errors.New("no eligible companies left in sector")
)

// ValidationError reports a missing or out-of-range input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
