package users

import "errors"

var (
	// ErrInvalidID is returned by ParseID for malformed identifiers.
	ErrInvalidID = errors.New("invalid user id")

	// ErrMissingFields means a create body lacked name, email or age.
	ErrMissingFields = errors.New("name, email, and age are required")

	// ErrNoFields means an update body carried none of name, email, age.
	ErrNoFields = errors.New("at least one field (name, email, age) is required")

	// ErrNotFound is returned when no record matches an identifier.
	ErrNotFound = errors.New("user not found")
)
