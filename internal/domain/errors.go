package domain

import "errors"

// validationError marks failures the customer must fix before the order can proceed.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

// NewValidationError builds a caller-facing validation failure.
func NewValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation distinguishes selection/scheduling problems from infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = NewValidationError("quantity must be at least 1")
)
