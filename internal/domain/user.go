package domain

import (
	"context"
	"time"
)

// User represents a registered ClearSky account. Credits is the denormalized
// balance; the transactions table is its audit trail.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // empty for passwordless (demo / magic-link only) accounts
	Credits      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
