// Package model defines the records persisted in the shard store
package model

import "time"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // argon2id PHC string
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	// Zero for accounts imported from the flat file deployment
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// Staged values waiting for a verification code
	PendingEmail    string `json:"pendingEmail,omitempty"`
	PendingPassword string `json:"pendingPassword,omitempty"`
}

// PublicUser is the projection returned to clients
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
