package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. It deliberately covers
	// both unknown-email and wrong-password so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists indicates registration with a taken email.
	ErrAlreadyExists = errors.New("email already exists")
	// ErrMissingEmail indicates an OAuth profile without an email where one is required.
	ErrMissingEmail = errors.New("provider email is required")
	// ErrUnauthenticated indicates the session carries no principal.
	ErrUnauthenticated = errors.New("invalid or expired session")
)
