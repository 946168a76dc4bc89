package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Audit is one completed website audit. Created once per successful run,
// never mutated.
type Audit struct {
	ID            int64
	UserID        int64
	URL           string
	Performance   int
	SEO           int
	BestPractices int
	Accessibility int
	ReportJSON    json.RawMessage // raw engine report
	CreatedAt     time.Time
}

// AuditScores holds the four 0-100 category scores of a run.
type AuditScores struct {
	Performance   int
	SEO           int
	BestPractices int
	Accessibility int
}

// AuditResult is what the engine produces for one run.
type AuditResult struct {
	Scores AuditScores
	Raw    json.RawMessage
}

// StatusFunc receives human-readable progress messages during an engine run.
// Messages arrive in real-world progress order; some environments emit none.
type StatusFunc func(message string)

// AuditEngine runs the external page-quality tool against one URL. onStatus
// may be nil. Implementations must release the external process on every
// exit path, including context cancellation.
type AuditEngine interface {
	Execute(ctx context.Context, url string, onStatus StatusFunc) (*AuditResult, error)
}

// AuditRepository defines persistence operations for audits.
type AuditRepository interface {
	Create(ctx context.Context, audit *Audit) error
	GetByID(ctx context.Context, id int64) (*Audit, error)
	ListByUser(ctx context.Context, userID int64) ([]Audit, error)
}
