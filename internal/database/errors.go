package database

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not owned
	// by the requesting user. The two cases are deliberately
	// indistinguishable at this boundary.
	ErrNotFound = errors.New("resource not found")

	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoRowsInserted is returned when a bulk insert silently stores
	// nothing.
	ErrNoRowsInserted = errors.New("no rows inserted")
)
