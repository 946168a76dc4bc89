package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/service"
	"github.com/clearskyhq/clearsky/internal/telnyx"
)

// CallTrackingHandler handles the call-tracking endpoints and the thin
// Telnyx proxy.
type CallTrackingHandler struct {
	tracking *service.CallTrackingService
}

// NewCallTrackingHandler creates a new CallTrackingHandler.
func NewCallTrackingHandler(tracking *service.CallTrackingService) *CallTrackingHandler {
	return &CallTrackingHandler{tracking: tracking}
}

// HandleSearchNumbers proxies an available-number search.
// GET /api/telnyx/numbers/search?country_code=&area_code=&phone_number=&features=&limit=
func (h *CallTrackingHandler) HandleSearchNumbers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := telnyx.SearchParams{
		CountryCode: q.Get("country_code"),
		AreaCode:    q.Get("area_code"),
		Contains:    q.Get("phone_number"),
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			params.Limit = n
		}
	}
	if features := q.Get("features"); features != "" {
		params.Features = splitCSV(features)
	}

	numbers, meta, err := h.tracking.SearchNumbers(r.Context(), params)
	if err != nil {
		h.writeTelnyxError(w, "search numbers", err, "Failed to search numbers")
		return
	}

	type numberDTO struct {
		Number   string `json:"number"`
		Location string `json:"location"`
		Type     string `json:"type"`
		Upfront  string `json:"upfront"`
		Monthly  string `json:"monthly"`
	}
	dtos := make([]numberDTO, len(numbers))
	for i, n := range numbers {
		location := "Unknown"
		if len(n.RegionInformation) > 0 && n.RegionInformation[0].RegionName != "" {
			location = n.RegionInformation[0].RegionName
		}
		numberType := n.PhoneNumberType
		if numberType == "" {
			numberType = "Local"
		}
		dtos[i] = numberDTO{
			Number:   n.PhoneNumber,
			Location: location,
			Type:     numberType,
			Upfront:  "$" + orDefault(n.CostInformation.UpfrontCost, "0.00"),
			Monthly:  "$" + orDefault(n.CostInformation.MonthlyCost, "0.00"),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "numbers": dtos, "meta": meta})
}

// HandleBuyNumbers purchases numbers and records them for the user.
// POST /api/telnyx/numbers/buy  body {"phone_numbers":["+1...",...]}
func (h *CallTrackingHandler) HandleBuyNumbers(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		PhoneNumbers []string `json:"phone_numbers"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	var numbers []string
	for _, n := range req.PhoneNumbers {
		if n != "" {
			numbers = append(numbers, n)
		}
	}

	result, err := h.tracking.BuyNumbers(r.Context(), user.ID, numbers)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "phone_numbers array is required")
			return
		}
		h.writeTelnyxError(w, "buy numbers", err, "Failed to purchase numbers")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"orderId": result.OrderID,
		"count":   result.Count,
	})
}

// HandleListOrders lists the user's number orders.
// GET /api/telnyx/numbers/orders?page=&limit=
func (h *CallTrackingHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.tracking.ListOrders(r.Context(), user.ID, page, limit)
	if err != nil {
		h.writeTelnyxError(w, "list orders", err, "Failed to fetch orders")
		return
	}

	type orderDTO struct {
		OrderID string `json:"orderId"`
		Status  string `json:"status"`
		Date    string `json:"date"`
		Country string `json:"country"`
	}
	dtos := make([]orderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = orderDTO{OrderID: o.OrderID, Status: o.Status, Date: o.Date, Country: o.Country}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": dtos})
}

// HandleSyncNumbers reconciles Telnyx numbers into the local table.
// POST /api/telnyx/numbers/sync
func (h *CallTrackingHandler) HandleSyncNumbers(w http.ResponseWriter, r *http.Request) {
	result, err := h.tracking.SyncNumbers(r.Context())
	if err != nil {
		h.writeTelnyxError(w, "sync numbers", err, "Sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"synced":  result.Synced,
		"created": result.Created,
		"updated": result.Updated,
	})
}

// HandleCallWebhook ingests Telnyx call events. It always acknowledges, even
// on failure, so Telnyx does not retry indefinitely.
// POST /api/telnyx/call-webhook
func (h *CallTrackingHandler) HandleCallWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		// v2 event envelope
		Data *struct {
			EventType string `json:"event_type"`
			Payload   struct {
				To            string `json:"to"`
				From          string `json:"from"`
				Direction     string `json:"direction"`
				CallControlID string `json:"call_control_id"`
				StartTime     string `json:"start_time"`
				EndTime       string `json:"end_time"`
			} `json:"payload"`
		} `json:"data"`
		// flat legacy shape
		EventType     string `json:"event_type"`
		HangupCause   string `json:"hangup_cause"`
		To            string `json:"to"`
		From          string `json:"from"`
		Direction     string `json:"direction"`
		CallControlID string `json:"call_control_id"`
		StartTime     string `json:"start_time"`
		EndTime       string `json:"end_time"`
	}
	// Webhook payloads carry many fields beyond what we read; decode leniently.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	event := service.CallEvent{
		EventType:     payload.EventType,
		To:            payload.To,
		From:          payload.From,
		Direction:     payload.Direction,
		CallControlID: payload.CallControlID,
		StartTime:     payload.StartTime,
		EndTime:       payload.EndTime,
	}
	if payload.Data != nil {
		event = service.CallEvent{
			EventType:     payload.Data.EventType,
			To:            payload.Data.Payload.To,
			From:          payload.Data.Payload.From,
			Direction:     payload.Data.Payload.Direction,
			CallControlID: payload.Data.Payload.CallControlID,
			StartTime:     payload.Data.Payload.StartTime,
			EndTime:       payload.Data.Payload.EndTime,
		}
	} else if event.EventType == "" && payload.HangupCause != "" {
		event.EventType = "call.hangup"
	}

	if err := h.tracking.RecordCallEvent(r.Context(), event); err != nil {
		slog.Error("record call event", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// HandleListNumbers lists the user's tracked numbers.
// GET /api/call-tracking/numbers
func (h *CallTrackingHandler) HandleListNumbers(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	numbers, err := h.tracking.ListNumbers(r.Context(), user.ID)
	if err != nil {
		slog.Error("list numbers", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"numbers": toPhoneNumberDTOs(numbers)})
}

// HandleAnalytics returns call analytics for a period.
// GET /api/call-tracking/analytics?period=this_month|last_7|last_30
func (h *CallTrackingHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	analytics, err := h.tracking.AnalyticsForPeriod(r.Context(), user.ID, r.URL.Query().Get("period"))
	if err != nil {
		slog.Error("call analytics", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"inboundTotal":   analytics.InboundTotal,
		"outboundTotal":  analytics.OutboundTotal,
		"avgDurationSec": analytics.AvgDurationSec,
		"answeredCalls":  analytics.AnsweredCalls,
		"callsOverTime":  analytics.CallsOverTime,
		"recentCalls":    toCallLogDTOs(analytics.RecentCalls),
	})
}

// writeTelnyxError maps service/proxy failures onto the response. Telnyx API
// errors keep their upstream status; a missing API key maps to 503.
func (h *CallTrackingHandler) writeTelnyxError(w http.ResponseWriter, op string, err error, fallback string) {
	if errors.Is(err, domain.ErrNotConfigured) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "Telnyx not configured"})
		return
	}
	var apiErr *telnyx.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.StatusCode, map[string]any{"success": false, "error": apiErr.Detail})
		return
	}
	slog.Error("telnyx "+op, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": fallback})
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
