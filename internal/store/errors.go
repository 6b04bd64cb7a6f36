package store

import "errors"

var (
	// ErrNotFound means no row with the given id exists.
	ErrNotFound = errors.New("record not found")

	// ErrScopeViolation means a row's farm_id does not match the farm the
	// caller is operating on. Always fatal for the enclosing operation,
	// never silently filtered.
	ErrScopeViolation = errors.New("record farm does not match authorized scope")
)
