package handler

import (
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Credits   int64  `json:"credits"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Credits:   u.Credits,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ScoresDTO is the JSON representation of the four audit scores.
type ScoresDTO struct {
	Performance   int `json:"performance"`
	SEO           int `json:"seo"`
	BestPractices int `json:"bestPractices"`
	Accessibility int `json:"accessibility"`
}

func toScoresDTO(s domain.AuditScores) ScoresDTO {
	return ScoresDTO{
		Performance:   s.Performance,
		SEO:           s.SEO,
		BestPractices: s.BestPractices,
		Accessibility: s.Accessibility,
	}
}

// AuditDTO is the JSON representation of a stored audit.
type AuditDTO struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Scores    ScoresDTO `json:"scores"`
	CreatedAt string    `json:"createdAt"`
}

func toAuditDTO(a domain.Audit) AuditDTO {
	return AuditDTO{
		ID:  a.ID,
		URL: a.URL,
		Scores: ScoresDTO{
			Performance:   a.Performance,
			SEO:           a.SEO,
			BestPractices: a.BestPractices,
			Accessibility: a.Accessibility,
		},
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func toAuditDTOs(audits []domain.Audit) []AuditDTO {
	dtos := make([]AuditDTO, len(audits))
	for i, a := range audits {
		dtos[i] = toAuditDTO(a)
	}
	return dtos
}

// TransactionDTO is the JSON representation of a ledger entry.
type TransactionDTO struct {
	ID           int64  `json:"id"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
	BalanceAfter int64  `json:"balanceAfter"`
	CreatedAt    string `json:"createdAt"`
}

func toTransactionDTOs(txns []domain.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txns))
	for i, t := range txns {
		dtos[i] = TransactionDTO{
			ID:           t.ID,
			Amount:       t.Amount,
			Reason:       t.Reason,
			BalanceAfter: t.BalanceAfter,
			CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// PhoneNumberDTO is the JSON representation of a tracked number.
type PhoneNumberDTO struct {
	ID          int64  `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	CreatedAt   string `json:"createdAt"`
}

func toPhoneNumberDTOs(numbers []domain.PhoneNumber) []PhoneNumberDTO {
	dtos := make([]PhoneNumberDTO, len(numbers))
	for i, n := range numbers {
		dtos[i] = PhoneNumberDTO{
			ID:          n.ID,
			PhoneNumber: n.PhoneNumber,
			CreatedAt:   n.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// CallLogDTO is the JSON representation of a call log entry.
type CallLogDTO struct {
	ID              int64  `json:"id"`
	Direction       string `json:"direction"`
	FromNumber      string `json:"fromNumber"`
	ToNumber        string `json:"toNumber"`
	DurationSeconds *int64 `json:"durationSeconds"`
	CreatedAt       string `json:"createdAt"`
}

func toCallLogDTOs(logs []domain.CallLog) []CallLogDTO {
	dtos := make([]CallLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = CallLogDTO{
			ID:              l.ID,
			Direction:       l.Direction,
			FromNumber:      l.FromNumber,
			ToNumber:        l.ToNumber,
			DurationSeconds: l.DurationSeconds,
			CreatedAt:       l.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}
