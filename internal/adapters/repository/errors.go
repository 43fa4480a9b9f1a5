package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrLoadFixtures  = errors.New("failed to load fixtures")
	ErrQuery         = errors.New("store query failed")
)
