package auth

import "errors"

var (
	// ErrInvalidCredentials is the only error email/password sign-in returns.
	ErrInvalidCredentials  = errors.New("sign-in failed, check your email and password")
	ErrProviderUnavailable = errors.New("provider sign-in is not configured")
	ErrNotSignedIn         = errors.New("not signed in")
	ErrSessionRevoked      = errors.New("session signed out")
)
