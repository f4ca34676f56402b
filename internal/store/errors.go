package store

import "errors"

var (
	// ErrNotFound is returned by mutations that target an id which does
	// not exist. Lookups return nil without an error instead.
	ErrNotFound = errors.New("record not found")

	// ErrFamilyNotFound is returned when a donation references a family
	// that does not exist at creation time.
	ErrFamilyNotFound = errors.New("family not found")

	// ErrEmailTaken is returned when creating a user with an email that
	// already has an account.
	ErrEmailTaken = errors.New("email already in use")
)
