package repositories

import "errors"

// Sentinel errors returned (wrapped) by every repository implementation.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)
