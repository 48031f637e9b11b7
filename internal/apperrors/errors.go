// Package apperrors defines the error taxonomy shared across the storefront.
// All of these are recoverable at the request boundary: handlers translate
// them into a status code and message, never a crash.
package apperrors

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrProductUnavailable is returned on add-to-cart when the product is
	// missing, flagged unavailable, or out of stock.
	ErrProductUnavailable = errors.New("product is not available")

	// ErrLineNotFound is returned when a cart mutation targets a line that
	// does not belong to the resolved cart identity.
	ErrLineNotFound = errors.New("cart line not found")

	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrUnauthenticated is returned when checkout or order history is
	// requested without a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrConcurrencyConflict is returned when an admin edit raced another
	// write: the row version moved between load and save. Callers reload
	// and reapply, or surface the conflict.
	ErrConcurrencyConflict = errors.New("record was modified concurrently")

	// ErrCategoryInUse is returned when deleting a category that still has
	// products referencing it.
	ErrCategoryInUse = errors.New("category has products and cannot be deleted")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
