package domain

import (
	"context"
	"time"
)

// Transaction is an immutable ledger entry recording one balance change.
// Summing Amount over a user's transactions always equals that user's
// current credit balance.
type Transaction struct {
	ID           int64
	UserID       int64
	Amount       int64 // signed: negative for debits
	Reason       string
	BalanceAfter int64
	CreatedAt    time.Time
}

const (
	ReasonSignupBonus = "signup_bonus"
	ReasonAudit       = "audit"
)

// LedgerRepository manages the credit balance and its append-only log.
// Debit and Credit each apply the balance change and the ledger row as a
// single atomic unit.
type LedgerRepository interface {
	// Debit subtracts amount from the user's balance and appends a ledger
	// entry with a negative amount. It fails with ErrInsufficientCredits,
	// leaving no trace, when the balance is too low. The balance check and
	// the write happen inside one transaction so concurrent debits can never
	// drive the balance negative.
	Debit(ctx context.Context, userID, amount int64, reason string) (newBalance int64, err error)

	// Credit adds amount to the user's balance and appends a ledger entry.
	// There is no upper-bound check.
	Credit(ctx context.Context, userID, amount int64, reason string) (newBalance int64, err error)

	ListByUser(ctx context.Context, userID int64) ([]Transaction, error)
}
