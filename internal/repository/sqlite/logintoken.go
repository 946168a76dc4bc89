package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// LoginTokenRepository implements domain.LoginTokenRepository using SQLite.
type LoginTokenRepository struct {
	db *sql.DB
}

// NewLoginTokenRepository creates a new SQLite-backed LoginTokenRepository.
func NewLoginTokenRepository(db *DB) *LoginTokenRepository {
	return &LoginTokenRepository{db: db.SqlDB}
}

func (r *LoginTokenRepository) Create(ctx context.Context, token *domain.LoginToken) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_tokens (token, user_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?)`,
		token.Token, token.UserID, token.ExpiresAt.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("insert login token: %w", err)
	}
	token.CreatedAt = now
	return nil
}

func (r *LoginTokenRepository) Get(ctx context.Context, token string) (*domain.LoginToken, error) {
	t := &domain.LoginToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at
		 FROM login_tokens WHERE token = ?`, token,
	).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get login token: %w", err)
	}
	return t, nil
}

func (r *LoginTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM login_tokens WHERE token = ?", token,
	)
	if err != nil {
		return fmt.Errorf("delete login token: %w", err)
	}
	return nil
}
