package models

import "time"

const RoleUser = "USER"

// User represents a player account together with its statistics
type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	FirstName     string
	LastName      string
	Email         string
	EmailVerified bool
	OAuthProvider string
	OAuthSubject  string
	Role          string
	Wins          int
	Losses        int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasPassword reports whether the account can sign in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
