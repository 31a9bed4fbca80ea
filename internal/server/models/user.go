package models

import "time"

// User is a registered account. PasswordHash is a bcrypt digest and never
// leaves the server.
type User struct {
	ID           string
	Login        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshRecord is the server-side half of a refresh token: the token's jti
// and the instant after which it can no longer be redeemed. The signed token
// itself is never stored.
type RefreshRecord struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the record is still redeemable at now.
func (r RefreshRecord) ActiveAt(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
