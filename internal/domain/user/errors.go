package user

import "errors"

// Sentinel errors returned by repository implementations.
var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrInvalidID  = errors.New("invalid user id")
)
