package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional update finds the row in an unexpected state
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrDuplicate is returned when a uniqueness constraint fails
	ErrDuplicate = errors.New("duplicate entity")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrCapacityReached is returned when a capped insert or update would exceed its limit
	ErrCapacityReached = errors.New("capacity reached")
)
