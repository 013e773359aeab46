package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common validation errors for User
var (
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// User is a registered account. The username is the account key and is the
// subject carried by issued tokens.
type User struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser creates a User from already hashed credentials.
// The caller is responsible for hashing the password before calling NewUser.
func NewUser(username, email string, fullName *string, hashedPassword string) (*User, error) {
	user := &User{
		Username:       username,
		Email:          email,
		FullName:       fullName,
		HashedPassword: hashedPassword,
		CreatedAt:      time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyUsername)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyEmail)
	}
	if u.HashedPassword == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyHashedPassword)
	}
	return nil
}

// Info returns the public profile fields of the user.
func (u *User) Info() UserInfo {
	return UserInfo{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// UserInfo is the subset of a User that is safe to return to clients.
type UserInfo struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}
