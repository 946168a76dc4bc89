package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// LedgerRepository implements domain.LedgerRepository using SQLite.
// Balance changes and their ledger rows commit as one transaction.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new SQLite-backed LedgerRepository.
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{db: db.SqlDB}
}

func (r *LedgerRepository) Debit(ctx context.Context, userID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive", domain.ErrInvalidInput)
	}
	return r.apply(ctx, userID, -amount, reason)
}

func (r *LedgerRepository) Credit(ctx context.Context, userID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidInput)
	}
	return r.apply(ctx, userID, amount, reason)
}

// apply re-reads the balance, checks it, and writes both the new balance and
// the ledger row inside a single transaction. The read and the write share
// the tx scope, so a concurrent debit can never observe a stale balance.
func (r *LedgerRepository) apply(ctx context.Context, userID, delta int64, reason string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx,
		"SELECT credits FROM users WHERE id = ?", userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return 0, domain.ErrInsufficientCredits
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET credits = ?, updated_at = ? WHERE id = ?",
		newBalance, now, userID,
	); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, reason, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, delta, reason, newBalance, now,
	); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return newBalance, nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount, reason, balance_after, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Reason, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}
