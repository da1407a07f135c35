package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound  = errors.New("player not found")
	ErrInvalidPlayerID = errors.New("invalid player id")

	// Validation errors
	ErrInvalidUsername = errors.New("username must be 3-50 characters and not blank")
)
