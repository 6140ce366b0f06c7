package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and password mismatch at
	// login. Callers must never learn which factor failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for signature or format failures and for
	// token kind mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when an access token is past its validity window.
	ErrTokenExpired = errors.New("token expired")
	// ErrAccessDenied is the refresh failure kind: undecodable or expired
	// refresh tokens, missing session state, or a superseded rotation identifier.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnauthorized is returned when a blacklisted access token is presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps I/O failures from the session or revocation
	// stores. It must never be mistaken for a credential failure.
	ErrStoreUnavailable = errors.New("auth store unavailable")
)
