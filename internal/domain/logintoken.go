package domain

import (
	"context"
	"time"
)

// LoginToken is a single-use magic-link token. It is deleted on first
// successful verification or when found expired.
type LoginToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// LoginTokenRepository defines persistence operations for login tokens.
type LoginTokenRepository interface {
	Create(ctx context.Context, token *LoginToken) error
	Get(ctx context.Context, token string) (*LoginToken, error)
	Delete(ctx context.Context, token string) error
}
