package domain

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required
	// authorization for the target scope
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidArgument is returned when an operation receives a malformed
	// benefit id, token number, or metadata URI
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a benefit is not found (including benefits
	// that have been removed)
	ErrNotFound = errors.New("benefit not found")

	// ErrTokenNotFound is returned when the referenced token does not exist in
	// the underlying collection
	ErrTokenNotFound = errors.New("token not found")

	// ErrBenefitAlreadyExists is returned when attaching with a benefit id
	// that is already in use or has been retired
	ErrBenefitAlreadyExists = errors.New("benefit already exists")

	// ErrCapacityExceeded is returned when an attach would exceed the
	// configured per-token benefit cap
	ErrCapacityExceeded = errors.New("benefit capacity exceeded")

	// ErrPaymentRequired is returned when a payable attach is called with
	// insufficient payment
	ErrPaymentRequired = errors.New("insufficient payment")
)
