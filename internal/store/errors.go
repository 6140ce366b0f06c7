package store

import "errors"

// Shared sentinel errors for the repositories.
var (
	// ErrEmailTaken is returned when creating or updating a user with an
	// email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by writes targeting a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound is returned by writes targeting a missing product.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound is returned by writes targeting a missing order.
	ErrOrderNotFound = errors.New("order not found")
)
