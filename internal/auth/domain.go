package auth

import "time"

// Credentials is the authentication view of a user account.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	Active       bool
}

// SessionRecord mirrors a login session row persisted for auditing.
type SessionRecord struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
