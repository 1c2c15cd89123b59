package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("password reset token is invalid or has expired")
)

// User models a registered account. Accounts created through an external
// identity provider have GoogleID set and an empty password hash.
//
// ResetTokenHash holds the SHA-256 of the most recent password-reset token;
// the plaintext token only ever travels through the mail collaborator.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	GoogleID          string    `json:"-"`
	Role              string    `json:"role"`
	ResetTokenHash    string    `json:"-"`
	ResetTokenExpires time.Time `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
