package apperrors

import "errors"

var (
	// ErrNotFound is returned when a requested resource does not exist
	// (including customers that have already been erased).
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for input rejected before any query
	// executes: wrong vector dimension, out-of-range limit, missing id.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyRecorded is returned when an embedding insert collides on its
	// idempotency hash. The submission is already stored; callers should not
	// retry.
	ErrAlreadyRecorded = errors.New("already recorded")
)
