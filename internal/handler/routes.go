package handler

import (
	"net/http"

	"github.com/clearskyhq/clearsky/internal/domain"
	"github.com/clearskyhq/clearsky/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(
	mux *http.ServeMux,
	auth *service.AuthService,
	audits *service.AuditService,
	tracking *service.CallTrackingService,
	ledger domain.LedgerRepository,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	// Audit runs hold a browser for seconds; keep the per-user rate gentle.
	auditHandler := NewAuditHandler(audits, ledger, service.NewTokenBucket(0.2, 3))
	trackingHandler := NewCallTrackingHandler(tracking)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(auth, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /api/auth/signup", authHandler.HandleSignup)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.HandleFunc("POST /api/auth/magic-link", authHandler.HandleMagicLink)
	mux.HandleFunc("GET /api/auth/verify", authHandler.HandleVerify)
	mux.HandleFunc("POST /api/demo-signup", authHandler.HandleDemoSignup)
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.HandleMe))

	mux.Handle("POST /api/audit/run", requireAuth(auditHandler.HandleRun))
	mux.Handle("GET /api/audit/{id}", requireAuth(auditHandler.HandleGet))
	mux.Handle("GET /api/audits", requireAuth(auditHandler.HandleList))
	mux.Handle("GET /api/credits", requireAuth(auditHandler.HandleCredits))

	mux.HandleFunc("GET /api/area-codes", HandleAreaCodes)
	mux.Handle("GET /api/call-tracking/numbers", requireAuth(trackingHandler.HandleListNumbers))
	mux.Handle("GET /api/call-tracking/analytics", requireAuth(trackingHandler.HandleAnalytics))
	mux.Handle("GET /api/telnyx/numbers/search", requireAuth(trackingHandler.HandleSearchNumbers))
	mux.Handle("POST /api/telnyx/numbers/buy", requireAuth(trackingHandler.HandleBuyNumbers))
	mux.Handle("GET /api/telnyx/numbers/orders", requireAuth(trackingHandler.HandleListOrders))
	mux.Handle("POST /api/telnyx/numbers/sync", requireAuth(trackingHandler.HandleSyncNumbers))
	mux.HandleFunc("POST /api/telnyx/call-webhook", trackingHandler.HandleCallWebhook)
}
