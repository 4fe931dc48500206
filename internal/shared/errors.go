package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCodeExpired occurs when a verification code is past its validity window.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeMismatch occurs when a supplied verification code is wrong.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
