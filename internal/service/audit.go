package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// AuditCost is the credit price of one audit run.
const AuditCost = 5

// RunResult is the outcome of a successful audit run.
type RunResult struct {
	AuditID          int64
	URL              string
	Scores           domain.AuditScores
	CreditsRemaining int64
}

// AuditService orchestrates one audit: charge credits, run the engine,
// persist the result.
type AuditService struct {
	audits domain.AuditRepository
	ledger domain.LedgerRepository
	engine domain.AuditEngine
}

// NewAuditService creates a new AuditService.
func NewAuditService(audits domain.AuditRepository, ledger domain.LedgerRepository, engine domain.AuditEngine) *AuditService {
	return &AuditService{
		audits: audits,
		ledger: ledger,
		engine: engine,
	}
}

// Run executes one audit for the user. The credit debit commits before the
// engine starts; a failure after that point does not refund the debit, since
// the attempt consumed engine resources either way. onStatus may be nil; it
// receives engine progress messages and is only ever called after the debit
// has committed.
//
// Concurrent runs for the same user are not serialized beyond the ledger
// transaction: with sufficient balance, both proceed and both charge.
func (s *AuditService) Run(ctx context.Context, userID int64, rawURL string, onStatus domain.StatusFunc) (*RunResult, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Debit(ctx, userID, AuditCost, domain.ReasonAudit)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Execute(ctx, url, onStatus)
	if err != nil {
		return nil, err
	}

	audit := &domain.Audit{
		UserID:        userID,
		URL:           url,
		Performance:   result.Scores.Performance,
		SEO:           result.Scores.SEO,
		BestPractices: result.Scores.BestPractices,
		Accessibility: result.Scores.Accessibility,
		ReportJSON:    result.Raw,
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("persist audit: %w", err)
	}

	return &RunResult{
		AuditID:          audit.ID,
		URL:              url,
		Scores:           result.Scores,
		CreditsRemaining: balance,
	}, nil
}

// GetForUser returns one of the user's audits, including the raw report.
func (s *AuditService) GetForUser(ctx context.Context, userID, auditID int64) (*domain.Audit, error) {
	audit, err := s.audits.GetByID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if audit.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return audit, nil
}

// ListForUser returns the user's audit history, newest first.
func (s *AuditService) ListForUser(ctx context.Context, userID int64) ([]domain.Audit, error) {
	return s.audits.ListByUser(ctx, userID)
}

// NormalizeURL trims the input and defaults the scheme to https.
// Empty input fails with ErrInvalidInput.
func NormalizeURL(rawURL string) (string, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return "", fmt.Errorf("%w: URL is required", domain.ErrInvalidInput)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url, nil
}
