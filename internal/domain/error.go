package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Core-user resolution errors
	ErrNoUserFound     = errors.New("no user found for the given identifier")
	ErrAmbiguousUser   = errors.New("multiple users found for the given identifier")
	ErrUserNotVerified = errors.New("user alias is not confirmed yet")

	// Repository executor errors (qx any pattern)
	ErrInvalidExecContext = errors.New("invalid executor context")
)
