package domain

import "time"

// PasswordReset is a single-use token allowing a user to set a new password.
type PasswordReset struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be redeemed.
func (p PasswordReset) Expired(now time.Time) bool {
	return p.UsedAt != nil || now.After(p.ExpiresAt)
}
