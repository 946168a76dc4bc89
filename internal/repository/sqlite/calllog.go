package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// CallLogRepository implements domain.CallLogRepository using SQLite.
type CallLogRepository struct {
	db *sql.DB
}

// NewCallLogRepository creates a new SQLite-backed CallLogRepository.
func NewCallLogRepository(db *DB) *CallLogRepository {
	return &CallLogRepository{db: db.SqlDB}
}

func (r *CallLogRepository) Create(ctx context.Context, log *domain.CallLog) error {
	now := time.Now().UTC()
	var duration sql.NullInt64
	if log.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: *log.DurationSeconds, Valid: true}
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO call_logs (user_id, phone_number_id, direction, from_number, to_number, duration_seconds, telnyx_call_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.UserID, log.PhoneNumberID, log.Direction, log.FromNumber, log.ToNumber,
		duration, nullString(log.TelnyxCallID), now,
	)
	if err != nil {
		return fmt.Errorf("insert call log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	log.ID = id
	log.CreatedAt = now
	return nil
}

func (r *CallLogRepository) GetByTelnyxCallID(ctx context.Context, userID int64, telnyxCallID string) (*domain.CallLog, error) {
	l := &domain.CallLog{}
	var duration sql.NullInt64
	var callID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, phone_number_id, direction, from_number, to_number, duration_seconds, telnyx_call_id, created_at
		 FROM call_logs WHERE user_id = ? AND telnyx_call_id = ? LIMIT 1`,
		userID, telnyxCallID,
	).Scan(&l.ID, &l.UserID, &l.PhoneNumberID, &l.Direction, &l.FromNumber, &l.ToNumber, &duration, &callID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get call log: %w", err)
	}
	if duration.Valid {
		l.DurationSeconds = &duration.Int64
	}
	l.TelnyxCallID = callID.String
	return l, nil
}

func (r *CallLogRepository) UpdateCall(ctx context.Context, id int64, fromNumber, toNumber string, durationSeconds *int64) error {
	var duration sql.NullInt64
	if durationSeconds != nil {
		duration = sql.NullInt64{Int64: *durationSeconds, Valid: true}
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE call_logs SET from_number = ?, to_number = ?, duration_seconds = ? WHERE id = ?",
		fromNumber, toNumber, duration, id,
	)
	if err != nil {
		return fmt.Errorf("update call log: %w", err)
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

func (r *CallLogRepository) ListByUserBetween(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.CallLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, phone_number_id, direction, from_number, to_number, duration_seconds, telnyx_call_id, created_at
		 FROM call_logs
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list call logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.CallLog
	for rows.Next() {
		var l domain.CallLog
		var duration sql.NullInt64
		var callID sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &l.PhoneNumberID, &l.Direction, &l.FromNumber,
			&l.ToNumber, &duration, &callID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan call log: %w", err)
		}
		if duration.Valid {
			l.DurationSeconds = &duration.Int64
		}
		l.TelnyxCallID = callID.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *CallLogRepository) CountByDirection(ctx context.Context, userID int64, start, end time.Time) (domain.DirectionCounts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT direction, COUNT(*)
		 FROM call_logs
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 GROUP BY direction`,
		userID, start.UTC(), end.UTC())
	if err != nil {
		return domain.DirectionCounts{}, fmt.Errorf("count by direction: %w", err)
	}
	defer rows.Close()

	var counts domain.DirectionCounts
	for rows.Next() {
		var direction string
		var count int64
		if err := rows.Scan(&direction, &count); err != nil {
			return domain.DirectionCounts{}, fmt.Errorf("scan count: %w", err)
		}
		switch direction {
		case domain.DirectionInbound:
			counts.Inbound = count
		case domain.DirectionOutbound:
			counts.Outbound = count
		}
	}
	return counts, rows.Err()
}

func (r *CallLogRepository) CountsPerDay(ctx context.Context, userID int64, start, end time.Time) ([]domain.DayCounts, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date(created_at) AS day, direction, COUNT(*)
		 FROM call_logs
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 GROUP BY day, direction
		 ORDER BY day`,
		userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("counts per day: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]*domain.DayCounts)
	var order []string
	for rows.Next() {
		var day, direction string
		var count int64
		if err := rows.Scan(&day, &direction, &count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DayCounts{Day: day}
			byDay[day] = entry
			order = append(order, day)
		}
		switch direction {
		case domain.DirectionInbound:
			entry.Inbound = count
		case domain.DirectionOutbound:
			entry.Outbound = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := make([]domain.DayCounts, len(order))
	for i, day := range order {
		days[i] = *byDay[day]
	}
	return days, nil
}

func (r *CallLogRepository) AverageDuration(ctx context.Context, userID int64, start, end time.Time) (float64, int64, error) {
	var avg sql.NullFloat64
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(duration_seconds), COUNT(*)
		 FROM call_logs
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ? AND duration_seconds IS NOT NULL`,
		userID, start.UTC(), end.UTC(),
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("average duration: %w", err)
	}
	return avg.Float64, count, nil
}
