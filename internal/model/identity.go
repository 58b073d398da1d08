package model

import "time"

// IdentityID uniquely identifies a registered account. Assigned by storage on creation.
type IdentityID int64

// Identity is a registered user account
type Identity struct {
	ID           IdentityID `json:"id"`
	Username     string     `json:"username"`      // login name (immutable, unique)
	PasswordHash string     `json:"password_hash"` // bcrypt hash, never plaintext
	FirstName    string     `json:"first_name"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Guest is the identity of an unauthenticated visitor
var Guest = Identity{FirstName: "Guest"}

// IsGuest reports whether the identity is the unauthenticated sentinel
func (i Identity) IsGuest() bool {
	return i.ID == 0
}
