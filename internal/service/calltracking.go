package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/telnyx"
)

// CallTrackingService owns tracked phone numbers and call analytics, proxying
// number management to Telnyx.
type CallTrackingService struct {
	client     *telnyx.Client // nil when Telnyx is not configured
	numbers    domain.PhoneNumberRepository
	calls      domain.CallLogRepository
	connection string
	syncUserID int64
}

// NewCallTrackingService creates a new CallTrackingService. client may be nil
// when no API key is configured; Telnyx-backed operations then fail with
// ErrNotConfigured.
func NewCallTrackingService(client *telnyx.Client, numbers domain.PhoneNumberRepository, calls domain.CallLogRepository, connectionID string, syncUserID int64) *CallTrackingService {
	return &CallTrackingService{
		client:     client,
		numbers:    numbers,
		calls:      calls,
		connection: connectionID,
		syncUserID: syncUserID,
	}
}

// SearchNumbers proxies an available-number search to Telnyx.
func (s *CallTrackingService) SearchNumbers(ctx context.Context, params telnyx.SearchParams) ([]telnyx.AvailableNumber, *telnyx.Meta, error) {
	if s.client == nil {
		return nil, nil, fmt.Errorf("%w: Telnyx API key missing", domain.ErrNotConfigured)
	}
	return s.client.SearchAvailableNumbers(ctx, params)
}

// BuyResult reports a completed number purchase.
type BuyResult struct {
	OrderID string
	Count   int
}

// BuyNumbers orders the given numbers from Telnyx and records each purchased
// number against the user.
func (s *CallTrackingService) BuyNumbers(ctx context.Context, userID int64, phoneNumbers []string) (*BuyResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: Telnyx API key missing", domain.ErrNotConfigured)
	}
	if len(phoneNumbers) == 0 {
		return nil, fmt.Errorf("%w: phone_numbers is required", domain.ErrInvalidInput)
	}

	order, err := s.client.CreateNumberOrder(ctx, phoneNumbers)
	if err != nil {
		return nil, fmt.Errorf("create number order: %w", err)
	}

	count := 0
	for _, purchased := range order.PhoneNumbers {
		if purchased.PhoneNumber == "" {
			continue
		}
		number := &domain.PhoneNumber{
			UserID:              userID,
			PhoneNumber:         purchased.PhoneNumber,
			TelnyxPhoneNumberID: purchased.ID,
		}
		if err := s.numbers.Upsert(ctx, number); err != nil {
			return nil, fmt.Errorf("record purchased number: %w", err)
		}
		count++
	}

	return &BuyResult{OrderID: order.ID, Count: count}, nil
}

// OrderSummary is one number order as presented to the client.
type OrderSummary struct {
	OrderID string
	Status  string
	Date    string
	Country string
}

// ListOrders returns the user's number orders: Telnyx orders filtered to
// those containing a number the user owns.
func (s *CallTrackingService) ListOrders(ctx context.Context, userID int64, page, limit int) ([]OrderSummary, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: Telnyx API key missing", domain.ErrNotConfigured)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, _, err := s.client.ListNumberOrders(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list number orders: %w", err)
	}

	owned, err := s.numbers.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownedSet := make(map[string]bool, len(owned))
	for _, n := range owned {
		ownedSet[n.PhoneNumber] = true
	}

	var summaries []OrderSummary
	for _, order := range orders {
		mine := false
		country := "Other"
		for _, n := range order.PhoneNumbers {
			if ownedSet[n.PhoneNumber] {
				mine = true
			}
		}
		if !mine {
			continue
		}
		if len(order.PhoneNumbers) > 0 && len(order.PhoneNumbers[0].PhoneNumber) > 2 &&
			order.PhoneNumbers[0].PhoneNumber[:2] == "+1" {
			country = "US"
		}
		status := order.Status
		if status == "" {
			status = "Unknown"
		}
		summaries = append(summaries, OrderSummary{
			OrderID: order.ID,
			Status:  status,
			Date:    order.CreatedAt,
			Country: country,
		})
	}
	return summaries, nil
}

// SyncResult reports a number sync from Telnyx.
type SyncResult struct {
	Synced  int
	Created int
	Updated int
}

// SyncNumbers pulls every number on the configured Telnyx connection and
// reconciles it with the local table. Numbers not yet tracked are assigned to
// the configured sync user, if any.
func (s *CallTrackingService) SyncNumbers(ctx context.Context) (*SyncResult, error) {
	if s.client == nil || s.connection == "" {
		return nil, fmt.Errorf("%w: Telnyx API key and connection id required", domain.ErrNotConfigured)
	}

	const pageSize = 100
	result := &SyncResult{}
	for page := 1; ; page++ {
		numbers, meta, err := s.client.ListPhoneNumbers(ctx, s.connection, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list telnyx numbers: %w", err)
		}
		result.Synced += len(numbers)

		for _, num := range numbers {
			if num.PhoneNumber == "" {
				continue
			}
			existing, err := s.numbers.FindByTelnyxIDOrNumber(ctx, num.ID, num.PhoneNumber)
			switch {
			case err == nil:
				if err := s.numbers.UpdateTelnyxID(ctx, existing.ID, num.ID); err != nil {
					return nil, fmt.Errorf("update synced number: %w", err)
				}
				result.Updated++
			case errors.Is(err, domain.ErrNotFound):
				if s.syncUserID == 0 {
					continue
				}
				created := &domain.PhoneNumber{
					UserID:              s.syncUserID,
					PhoneNumber:         num.PhoneNumber,
					TelnyxPhoneNumberID: num.ID,
				}
				if err := s.numbers.Upsert(ctx, created); err != nil {
					return nil, fmt.Errorf("create synced number: %w", err)
				}
				result.Created++
			default:
				return nil, err
			}
		}

		totalPages := 1
		if meta != nil {
			totalPages = meta.TotalPages
		}
		if page >= totalPages || len(numbers) < pageSize {
			break
		}
	}
	return result, nil
}

// CallEvent is a parsed Telnyx call webhook payload.
type CallEvent struct {
	EventType     string
	To            string
	From          string
	Direction     string // Telnyx "incoming"/"outgoing"
	CallControlID string
	StartTime     string
	EndTime       string
}

// RecordCallEvent ingests a call.hangup webhook into the call log. Events for
// untracked numbers or non-hangup events are ignored without error; the
// webhook endpoint always acknowledges.
func (s *CallTrackingService) RecordCallEvent(ctx context.Context, event CallEvent) error {
	if event.EventType != "call.hangup" {
		return nil
	}

	direction := domain.DirectionOutbound
	if event.Direction == "incoming" {
		direction = domain.DirectionInbound
	}

	ourNumber, theirNumber := event.From, event.To
	if direction == domain.DirectionInbound {
		ourNumber, theirNumber = event.To, event.From
	}
	if ourNumber == "" || theirNumber == "" {
		return nil
	}

	phone, err := s.numbers.GetByNumber(ctx, ourNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	duration := callDuration(event.StartTime, event.EndTime)

	if event.CallControlID != "" {
		existing, err := s.calls.GetByTelnyxCallID(ctx, phone.UserID, event.CallControlID)
		if err == nil {
			return s.calls.UpdateCall(ctx, existing.ID, event.From, event.To, duration)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	return s.calls.Create(ctx, &domain.CallLog{
		UserID:          phone.UserID,
		PhoneNumberID:   phone.ID,
		Direction:       direction,
		FromNumber:      event.From,
		ToNumber:        event.To,
		DurationSeconds: duration,
		TelnyxCallID:    event.CallControlID,
	})
}

// ListNumbers returns the user's tracked numbers.
func (s *CallTrackingService) ListNumbers(ctx context.Context, userID int64) ([]domain.PhoneNumber, error) {
	return s.numbers.ListByUser(ctx, userID)
}

// Analytics is the call-tracking dashboard payload for one period.
type Analytics struct {
	InboundTotal   int64
	OutboundTotal  int64
	AvgDurationSec float64
	AnsweredCalls  int64
	CallsOverTime  []domain.DayCounts
	RecentCalls    []domain.CallLog
}

// AnalyticsForPeriod aggregates the user's call activity. Period is one of
// "this_month" (default), "last_7", or "last_30"; days with no calls are
// zero-filled so the chart axis stays continuous.
func (s *CallTrackingService) AnalyticsForPeriod(ctx context.Context, userID int64, period string) (*Analytics, error) {
	start, end := periodRange(period, time.Now().UTC())

	counts, err := s.calls.CountByDirection(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	perDay, err := s.calls.CountsPerDay(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	avg, answered, err := s.calls.AverageDuration(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	recent, err := s.calls.ListByUserBetween(ctx, userID, start, end, 50)
	if err != nil {
		return nil, err
	}

	return &Analytics{
		InboundTotal:   counts.Inbound,
		OutboundTotal:  counts.Outbound,
		AvgDurationSec: avg,
		AnsweredCalls:  answered,
		CallsOverTime:  fillDays(start, end, perDay),
		RecentCalls:    recent,
	}, nil
}

func periodRange(period string, now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC)
	var start time.Time
	switch period {
	case "last_7":
		start = end.AddDate(0, 0, -6)
	case "last_30":
		start = end.AddDate(0, 0, -29)
	default: // this_month
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC), end
}

func fillDays(start, end time.Time, perDay []domain.DayCounts) []domain.DayCounts {
	byDay := make(map[string]domain.DayCounts, len(perDay))
	for _, d := range perDay {
		byDay[d.Day] = d
	}

	var out []domain.DayCounts
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if entry, ok := byDay[key]; ok {
			out = append(out, entry)
		} else {
			out = append(out, domain.DayCounts{Day: key})
		}
	}
	return out
}

func callDuration(startTime, endTime string) *int64 {
	if startTime == "" || endTime == "" {
		return nil
	}
	s, err := time.Parse(time.RFC3339, startTime)
	if err != nil {
		slog.Debug("unparseable call start time", "value", startTime)
		return nil
	}
	e, err := time.Parse(time.RFC3339, endTime)
	if err != nil {
		slog.Debug("unparseable call end time", "value", endTime)
		return nil
	}
	if e.Before(s) {
		return nil
	}
	seconds := int64(math.Round(e.Sub(s).Seconds()))
	return &seconds
}
