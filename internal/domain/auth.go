package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOAuthExchange      = errors.New("oauth code exchange failed")
	ErrMissingEmail       = errors.New("identity assertion has no email")
)

// User is a stored account. PasswordHash is empty for accounts created through
// federated login; such accounts can never authenticate with a password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Identity is what an external identity provider asserts about the caller.
// Name and Picture are provider-controlled display values and are not sanitized.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type Profile struct {
	Email   string
	Name    string
	Picture string
}
