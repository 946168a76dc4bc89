package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// PhoneNumberRepository implements domain.PhoneNumberRepository using SQLite.
type PhoneNumberRepository struct {
	db *sql.DB
}

// NewPhoneNumberRepository creates a new SQLite-backed PhoneNumberRepository.
func NewPhoneNumberRepository(db *DB) *PhoneNumberRepository {
	return &PhoneNumberRepository{db: db.SqlDB}
}

func (r *PhoneNumberRepository) Upsert(ctx context.Context, number *domain.PhoneNumber) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO phone_numbers (user_id, phone_number, telnyx_phone_number_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, phone_number)
		 DO UPDATE SET telnyx_phone_number_id = excluded.telnyx_phone_number_id`,
		number.UserID, number.PhoneNumber, nullString(number.TelnyxPhoneNumberID), now,
	)
	if err != nil {
		return fmt.Errorf("upsert phone number: %w", err)
	}

	stored, err := r.getBy(ctx, "user_id = ? AND phone_number = ?", number.UserID, number.PhoneNumber)
	if err != nil {
		return err
	}
	number.ID = stored.ID
	number.CreatedAt = stored.CreatedAt
	return nil
}

func (r *PhoneNumberRepository) GetByNumber(ctx context.Context, phoneNumber string) (*domain.PhoneNumber, error) {
	return r.getBy(ctx, "phone_number = ?", phoneNumber)
}

func (r *PhoneNumberRepository) FindByTelnyxIDOrNumber(ctx context.Context, telnyxID, phoneNumber string) (*domain.PhoneNumber, error) {
	return r.getBy(ctx,
		"(telnyx_phone_number_id = ? AND telnyx_phone_number_id IS NOT NULL) OR phone_number = ?",
		telnyxID, phoneNumber)
}

func (r *PhoneNumberRepository) getBy(ctx context.Context, where string, args ...any) (*domain.PhoneNumber, error) {
	n := &domain.PhoneNumber{}
	var telnyxID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, phone_number, telnyx_phone_number_id, created_at
		 FROM phone_numbers WHERE `+where+` LIMIT 1`, args...,
	).Scan(&n.ID, &n.UserID, &n.PhoneNumber, &telnyxID, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query phone number: %w", err)
	}
	n.TelnyxPhoneNumberID = telnyxID.String
	return n, nil
}

func (r *PhoneNumberRepository) UpdateTelnyxID(ctx context.Context, id int64, telnyxID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE phone_numbers SET telnyx_phone_number_id = ? WHERE id = ?",
		nullString(telnyxID), id,
	)
	if err != nil {
		return fmt.Errorf("update telnyx id: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PhoneNumberRepository) ListByUser(ctx context.Context, userID int64) ([]domain.PhoneNumber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, phone_number, telnyx_phone_number_id, created_at
		 FROM phone_numbers WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list phone numbers: %w", err)
	}
	defer rows.Close()

	var numbers []domain.PhoneNumber
	for rows.Next() {
		var n domain.PhoneNumber
		var telnyxID sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.PhoneNumber, &telnyxID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		n.TelnyxPhoneNumberID = telnyxID.String
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

func (r *PhoneNumberRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM phone_numbers WHERE user_id = ?", userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count phone numbers: %w", err)
	}
	return count, nil
}
