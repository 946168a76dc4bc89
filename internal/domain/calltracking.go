package domain

import (
	"context"
	"time"
)

// PhoneNumber is a tracked number owned by a user, optionally linked to its
// Telnyx resource id.
type PhoneNumber struct {
	ID                  int64
	UserID              int64
	PhoneNumber         string
	TelnyxPhoneNumberID string
	CreatedAt           time.Time
}

// CallLog records one completed call on a tracked number.
type CallLog struct {
	ID              int64
	UserID          int64
	PhoneNumberID   int64
	Direction       string // "inbound" or "outbound"
	FromNumber      string
	ToNumber        string
	DurationSeconds *int64
	TelnyxCallID    string
	CreatedAt       time.Time
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// DirectionCounts is the per-direction call total for a period.
type DirectionCounts struct {
	Inbound  int64
	Outbound int64
}

// DayCounts is the per-day call breakdown used by the analytics chart.
type DayCounts struct {
	Day      string // YYYY-MM-DD
	Inbound  int64
	Outbound int64
}

// PhoneNumberRepository defines persistence operations for tracked numbers.
type PhoneNumberRepository interface {
	// Upsert creates the (user, number) row or refreshes its Telnyx id.
	Upsert(ctx context.Context, number *PhoneNumber) error
	GetByNumber(ctx context.Context, phoneNumber string) (*PhoneNumber, error)
	FindByTelnyxIDOrNumber(ctx context.Context, telnyxID, phoneNumber string) (*PhoneNumber, error)
	UpdateTelnyxID(ctx context.Context, id int64, telnyxID string) error
	ListByUser(ctx context.Context, userID int64) ([]PhoneNumber, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

// CallLogRepository defines persistence and aggregation for call logs.
type CallLogRepository interface {
	Create(ctx context.Context, log *CallLog) error
	GetByTelnyxCallID(ctx context.Context, userID int64, telnyxCallID string) (*CallLog, error)
	UpdateCall(ctx context.Context, id int64, fromNumber, toNumber string, durationSeconds *int64) error
	ListByUserBetween(ctx context.Context, userID int64, start, end time.Time, limit int) ([]CallLog, error)
	CountByDirection(ctx context.Context, userID int64, start, end time.Time) (DirectionCounts, error)
	CountsPerDay(ctx context.Context, userID int64, start, end time.Time) ([]DayCounts, error)
	AverageDuration(ctx context.Context, userID int64, start, end time.Time) (avgSeconds float64, counted int64, err error)
}
