package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// AuditRepository implements domain.AuditRepository using SQLite.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new SQLite-backed AuditRepository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db.SqlDB}
}

func (r *AuditRepository) Create(ctx context.Context, audit *domain.Audit) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO audits (user_id, url, performance, seo, best_practices, accessibility, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		audit.UserID, audit.URL, audit.Performance, audit.SEO,
		audit.BestPractices, audit.Accessibility, string(audit.ReportJSON), now,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	audit.ID = id
	audit.CreatedAt = now
	return nil
}

func (r *AuditRepository) GetByID(ctx context.Context, id int64) (*domain.Audit, error) {
	a := &domain.Audit{}
	var report sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, url, performance, seo, best_practices, accessibility, report_json, created_at
		 FROM audits WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.URL, &a.Performance, &a.SEO,
		&a.BestPractices, &a.Accessibility, &report, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get audit: %w", err)
	}
	if report.Valid {
		a.ReportJSON = []byte(report.String)
	}
	return a, nil
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Audit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, url, performance, seo, best_practices, accessibility, created_at
		 FROM audits WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var audits []domain.Audit
	for rows.Next() {
		var a domain.Audit
		if err := rows.Scan(&a.ID, &a.UserID, &a.URL, &a.Performance, &a.SEO,
			&a.BestPractices, &a.Accessibility, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
