package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/repository/sqlite"
)

func TestLoginTokenRepository_CreateGetDelete(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewLoginTokenRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "magic@example.com")

	token := &domain.LoginToken{
		Token:     "tok-123",
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(15 * time.Minute),
	}
	if err := repo.Create(ctx, token); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.Get(ctx, "tok-123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.UserID)
	}
	if got.ExpiresAt.IsZero() {
		t.Fatal("expected expiry to round-trip")
	}

	if err := repo.Delete(ctx, "tok-123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = repo.Get(ctx, "tok-123")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestLoginTokenRepository_Get_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewLoginTokenRepository(db)

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
