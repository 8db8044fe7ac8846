// Package errors defines sentinel errors shared across storage and HTTP
// layers. Handlers match on these with errors.Is to pick a status code
// instead of inspecting driver-specific error strings.
package errors

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a unique constraint violation
	// (e.g. registering an email that is already taken).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidCredentials covers every authentication failure uniformly:
	// unknown email, wrong password, malformed/expired/forged token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveUser indicates the account exists but has been deactivated.
	ErrInactiveUser = errors.New("inactive user")
)
