package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/repository/sqlite"
)

func TestAuditRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewAuditRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "audit@example.com")

	audit := &domain.Audit{
		UserID:        user.ID,
		URL:           "https://example.com",
		Performance:   90,
		SEO:           80,
		BestPractices: 100,
		Accessibility: 70,
		ReportJSON:    json.RawMessage(`{"categories":{"performance":{"score":0.9}}}`),
	}
	if err := repo.Create(ctx, audit); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if audit.ID == 0 {
		t.Fatal("expected audit ID to be set")
	}

	got, err := repo.GetByID(ctx, audit.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.URL != "https://example.com" {
		t.Fatalf("expected url to round-trip, got %s", got.URL)
	}
	if got.Performance != 90 || got.SEO != 80 || got.BestPractices != 100 || got.Accessibility != 70 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if len(got.ReportJSON) == 0 {
		t.Fatal("expected raw report to round-trip")
	}
}

func TestAuditRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewAuditRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAuditRepository_ListByUser(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewAuditRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "history@example.com")
	other := createTestUser(t, db, "other@example.com")

	for _, url := range []string{"https://a.example", "https://b.example"} {
		if err := repo.Create(ctx, &domain.Audit{UserID: user.ID, URL: url}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, &domain.Audit{UserID: other.ID, URL: "https://c.example"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	audits, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(audits) != 2 {
		t.Fatalf("expected 2 audits, got %d", len(audits))
	}
	for _, a := range audits {
		if a.UserID != user.ID {
			t.Fatalf("listed audit for wrong user: %+v", a)
		}
	}
}
