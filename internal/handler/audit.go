package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/service"
)

// AuditHandler handles audit-related HTTP requests.
type AuditHandler struct {
	audits  *service.AuditService
	ledger  domain.LedgerRepository
	limiter *service.TokenBucket
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audits *service.AuditService, ledger domain.LedgerRepository, limiter *service.TokenBucket) *AuditHandler {
	return &AuditHandler{audits: audits, ledger: ledger, limiter: limiter}
}

// HandleRun runs an audit for the authenticated user.
// POST /api/audit/run          body {"url":"..."}
// POST /api/audit/run?stream=1 responds with application/x-ndjson events.
func (h *AuditHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if !h.limiter.Allow(strconv.FormatInt(user.ID, 10)) {
		writeError(w, http.StatusTooManyRequests, "Too many audit requests. Please slow down.")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if r.URL.Query().Get("stream") == "1" {
		h.runStreaming(w, r, user.ID, req.URL)
		return
	}

	result, err := h.audits.Run(r.Context(), user.ID, req.URL, nil)
	if err != nil {
		status, message := auditErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("run audit", "user_id", user.ID, "error", err)
		}
		writeError(w, status, message)
		return
	}

	html, err := renderReport(result.URL, result.Scores)
	if err != nil {
		slog.Error("render audit report", "error", err)
		writeError(w, http.StatusInternalServerError, "Audit failed to run")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"auditId":          result.AuditID,
		"url":              result.URL,
		"html":             html,
		"scores":           toScoresDTO(result.Scores),
		"creditsRemaining": result.CreditsRemaining,
	})
}

// runStreaming relays engine progress as NDJSON events. The stream always
// ends with exactly one terminal event, even if the run dies mid-way.
func (h *AuditHandler) runStreaming(w http.ResponseWriter, r *http.Request, userID int64, rawURL string) {
	stream := newNDJSONWriter(w)
	defer func() {
		if !stream.TerminalSent() {
			stream.Error("Audit failed to run", http.StatusInternalServerError)
		}
	}()

	result, err := h.audits.Run(r.Context(), userID, rawURL, stream.Status)
	if err != nil {
		status, message := auditErrorStatus(err)
		if status == http.StatusInternalServerError {
			slog.Error("run audit stream", "user_id", userID, "error", err)
		}
		stream.Error(message, status)
		return
	}

	stream.Result(result.AuditID, result.URL, toScoresDTO(result.Scores), result.CreditsRemaining)
}

// HandleGet returns one of the user's audits, including category and audit
// detail pulled from the raw report.
// GET /api/audit/{id}
func (h *AuditHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audit id.")
		return
	}

	audit, err := h.audits.GetForUser(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Audit not found.")
			return
		}
		slog.Error("get audit", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}

	resp := map[string]any{"audit": toAuditDTO(*audit)}
	if len(audit.ReportJSON) > 0 {
		var report struct {
			Categories json.RawMessage `json:"categories"`
			Audits     json.RawMessage `json:"audits"`
		}
		if err := json.Unmarshal(audit.ReportJSON, &report); err == nil {
			resp["categories"] = report.Categories
			resp["audits"] = report.Audits
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleList returns the user's audit history.
// GET /api/audits
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	audits, err := h.audits.ListForUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("list audits", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audits": toAuditDTOs(audits)})
}

// HandleCredits returns the user's balance and ledger.
// GET /api/credits
func (h *AuditHandler) HandleCredits(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	txns, err := h.ledger.ListByUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("list transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"credits":      user.Credits,
		"transactions": toTransactionDTOs(txns),
	})
}

func auditErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "URL is required"
	case errors.Is(err, domain.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "Insufficient credits"
	default:
		return http.StatusInternalServerError, "Audit failed to run"
	}
}
