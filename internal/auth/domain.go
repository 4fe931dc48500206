package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	Verified     bool
	IsActive     bool

	// Home organization/team, denormalized defaults for scope checks.
	OrgID  *string
	TeamID *string

	// Outstanding e-mail verification code, bcrypt-hashed at rest.
	CodeHash      *string
	CodeExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
