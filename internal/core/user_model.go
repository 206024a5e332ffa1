package core

import (
	"context"
	"time"
)

// User is an account that owns stocks, invoices and one business profile.
type User struct {
	ID           int
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// UserService provides user lookup and credential checks.
type UserService interface {
	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// Authenticate returns the active user whose bcrypt hash matches password,
	// or an *UnauthorizedError.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// CreateUser stores a new active user with a bcrypt hash of password.
	CreateUser(ctx context.Context, username, email, password string) (*User, error)
}
