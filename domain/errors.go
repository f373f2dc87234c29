package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")

	// ErrValidation marks input rejected before it reaches the store.
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateUsername = fmt.Errorf("%w: username already taken", ErrValidation)

	// ErrAuthFailure never says which credential was wrong.
	ErrAuthFailure          = errors.New("authentication failed")
	ErrRegistrationDisabled = errors.New("registration disabled")
)
