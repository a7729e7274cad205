package domain

import "errors"

var (
	// ErrSessionExists is returned by Create when the user already has a session
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionConflict is returned by Save when another write got there first
	ErrSessionConflict = errors.New("session was modified concurrently")

	// ErrGeneration wraps failures of the dialogue generator
	ErrGeneration = errors.New("dialogue generation failed")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)
