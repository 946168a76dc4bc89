package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/repository/sqlite"
)

func TestPhoneNumberRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewPhoneNumberRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "numbers@example.com")

	number := &domain.PhoneNumber{UserID: user.ID, PhoneNumber: "+15551230001"}
	if err := repo.Upsert(ctx, number); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if number.ID == 0 {
		t.Fatal("expected number ID to be set")
	}

	// Upserting the same (user, number) refreshes the Telnyx id without
	// creating a second row.
	again := &domain.PhoneNumber{UserID: user.ID, PhoneNumber: "+15551230001", TelnyxPhoneNumberID: "tnx-1"}
	if err := repo.Upsert(ctx, again); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if again.ID != number.ID {
		t.Fatalf("expected same row id %d, got %d", number.ID, again.ID)
	}

	numbers, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(numbers) != 1 {
		t.Fatalf("expected 1 number, got %d", len(numbers))
	}
	if numbers[0].TelnyxPhoneNumberID != "tnx-1" {
		t.Fatalf("expected telnyx id refreshed, got %q", numbers[0].TelnyxPhoneNumberID)
	}
}

func TestPhoneNumberRepository_FindByTelnyxIDOrNumber(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewPhoneNumberRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "find@example.com")
	number := &domain.PhoneNumber{UserID: user.ID, PhoneNumber: "+15551230002", TelnyxPhoneNumberID: "tnx-2"}
	if err := repo.Upsert(ctx, number); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	byID, err := repo.FindByTelnyxIDOrNumber(ctx, "tnx-2", "+10000000000")
	if err != nil {
		t.Fatalf("find by telnyx id: %v", err)
	}
	if byID.ID != number.ID {
		t.Fatalf("expected row %d, got %d", number.ID, byID.ID)
	}

	byNumber, err := repo.FindByTelnyxIDOrNumber(ctx, "unknown", "+15551230002")
	if err != nil {
		t.Fatalf("find by number: %v", err)
	}
	if byNumber.ID != number.ID {
		t.Fatalf("expected row %d, got %d", number.ID, byNumber.ID)
	}

	_, err = repo.FindByTelnyxIDOrNumber(ctx, "unknown", "+19999999999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallLogRepository_CreateAndAggregate(t *testing.T) {
	db := newTestDB(t)
	numbers := sqlite.NewPhoneNumberRepository(db)
	calls := sqlite.NewCallLogRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "calls@example.com")
	number := &domain.PhoneNumber{UserID: user.ID, PhoneNumber: "+15551230003"}
	if err := numbers.Upsert(ctx, number); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	duration := int64(42)
	logs := []*domain.CallLog{
		{UserID: user.ID, PhoneNumberID: number.ID, Direction: domain.DirectionInbound, FromNumber: "+15550000001", ToNumber: number.PhoneNumber, DurationSeconds: &duration, TelnyxCallID: "call-1"},
		{UserID: user.ID, PhoneNumberID: number.ID, Direction: domain.DirectionInbound, FromNumber: "+15550000002", ToNumber: number.PhoneNumber},
		{UserID: user.ID, PhoneNumberID: number.ID, Direction: domain.DirectionOutbound, FromNumber: number.PhoneNumber, ToNumber: "+15550000003"},
	}
	for _, l := range logs {
		if err := calls.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	start := time.Now().UTC().Add(-time.Hour)
	end := time.Now().UTC().Add(time.Hour)

	counts, err := calls.CountByDirection(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("CountByDirection: %v", err)
	}
	if counts.Inbound != 2 || counts.Outbound != 1 {
		t.Fatalf("expected 2 inbound / 1 outbound, got %+v", counts)
	}

	perDay, err := calls.CountsPerDay(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("CountsPerDay: %v", err)
	}
	if len(perDay) == 0 {
		t.Fatal("expected at least one day bucket")
	}

	avg, answered, err := calls.AverageDuration(ctx, user.ID, start, end)
	if err != nil {
		t.Fatalf("AverageDuration: %v", err)
	}
	if answered != 1 {
		t.Fatalf("expected 1 call with duration, got %d", answered)
	}
	if avg != 42 {
		t.Fatalf("expected avg 42, got %f", avg)
	}

	recent, err := calls.ListByUserBetween(ctx, user.ID, start, end, 50)
	if err != nil {
		t.Fatalf("ListByUserBetween: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(recent))
	}
}

func TestCallLogRepository_DedupeByTelnyxCallID(t *testing.T) {
	db := newTestDB(t)
	numbers := sqlite.NewPhoneNumberRepository(db)
	calls := sqlite.NewCallLogRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "dedupe@example.com")
	number := &domain.PhoneNumber{UserID: user.ID, PhoneNumber: "+15551230004"}
	if err := numbers.Upsert(ctx, number); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	log := &domain.CallLog{
		UserID: user.ID, PhoneNumberID: number.ID,
		Direction: domain.DirectionInbound, FromNumber: "+15550000009", ToNumber: number.PhoneNumber,
		TelnyxCallID: "call-dup",
	}
	if err := calls.Create(ctx, log); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := calls.GetByTelnyxCallID(ctx, user.ID, "call-dup")
	if err != nil {
		t.Fatalf("GetByTelnyxCallID: %v", err)
	}

	duration := int64(7)
	if err := calls.UpdateCall(ctx, got.ID, "+15550000009", number.PhoneNumber, &duration); err != nil {
		t.Fatalf("UpdateCall: %v", err)
	}

	updated, err := calls.GetByTelnyxCallID(ctx, user.ID, "call-dup")
	if err != nil {
		t.Fatalf("GetByTelnyxCallID after update: %v", err)
	}
	if updated.DurationSeconds == nil || *updated.DurationSeconds != 7 {
		t.Fatalf("expected duration 7, got %+v", updated.DurationSeconds)
	}
}
