package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account on the session service. Friends with
// HasLinkedAccount true point at a User's ID.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique, used for login).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is when the account was created.
	CreatedAt time.Time

	// UpdatedAt is refreshed on every account change.
	UpdatedAt time.Time
}

// NewUser builds a User with a fresh ID and timestamps.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
