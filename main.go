package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearskyhq/clearsky/internal/config"
	"github.com/clearskyhq/clearsky/internal/handler"
	"github.com/clearskyhq/clearsky/internal/lighthouse"
	"github.com/clearskyhq/clearsky/internal/repository/sqlite"
	"github.com/clearskyhq/clearsky/internal/service"
	"github.com/clearskyhq/clearsky/internal/telnyx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	authService := service.NewAuthService(db.Users(), db.Ledger(), db.LoginTokens(), cfg.JWTSecret, cfg.BaseURL, cfg.BcryptCost)
	engine := lighthouse.New(cfg.LighthousePath, cfg.ChromePath, cfg.AuditTimeout)
	auditService := service.NewAuditService(db.Audits(), db.Ledger(), engine)

	var telnyxClient *telnyx.Client
	if cfg.TelnyxAPIKey != "" {
		telnyxClient = telnyx.NewClient(cfg.TelnyxAPIKey)
	} else {
		slog.Warn("TELNYX_API_KEY not set; call-tracking endpoints will return 503")
	}
	trackingService := service.NewCallTrackingService(telnyxClient, db.PhoneNumbers(), db.CallLogs(), cfg.TelnyxConnectionID, cfg.TelnyxSyncUserID)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, auditService, trackingService, db.Ledger(), cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
