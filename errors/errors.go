// Package errors holds the sentinel errors shared across services and
// transports. Handlers map them to HTTP statuses or websocket error frames;
// anything not in this list is treated as an internal failure and never
// detailed to the remote side.
package errors

import "fmt"

var (
	// ErrValidation: malformed or incomplete input. Caller's fault, never retried.
	ErrValidation = fmt.Errorf("validation failed")

	// ErrAuthentication: missing or unusable identity. Caller must re-authenticate.
	ErrAuthentication = fmt.Errorf("authentication required")

	// ErrForbidden: valid identity, insufficient rights.
	ErrForbidden = fmt.Errorf("forbidden")

	// ErrNotFound: referenced entity absent.
	ErrNotFound = fmt.Errorf("not found")

	// ErrInvalidCredentials covers unknown accounts, bad passwords and bad
	// tokens alike, so a caller cannot tell which accounts exist.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	ErrUserAlreadyExists = fmt.Errorf("user already exists")
	ErrInvalidPassword   = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration   = fmt.Errorf("token generation failed")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
)
