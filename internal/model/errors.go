package model

import "errors"

var (
	// ErrNotFound covers unknown ids and ids not owned by the given user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput covers missing/malformed identifiers and out-of-range fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage wraps faults from the underlying persistence layer.
	ErrStorage = errors.New("storage fault")
)
