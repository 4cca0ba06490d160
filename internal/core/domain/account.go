package domain

import "time"

// Role is the authorisation level carried by an account and its session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account is a verified identity. Accounts are never deleted.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingSignup holds a registration until its email address is confirmed.
type PendingSignup struct {
	Email        string
	PasswordHash string
	Token        string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the verification token can no longer be used at now.
func (p *PendingSignup) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Session is the identity extracted from a valid session token.
type Session struct {
	AccountID int64
	Email     string
	Role      Role
	ExpiresAt time.Time
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
