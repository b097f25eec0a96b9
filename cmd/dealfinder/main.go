package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/dealfinder/internal/config"
	"github.com/dukerupert/dealfinder/internal/database"
	"github.com/dukerupert/dealfinder/internal/email"
	"github.com/dukerupert/dealfinder/internal/logging"
	"github.com/dukerupert/dealfinder/internal/server"
	"github.com/dukerupert/dealfinder/internal/service"
)

const cleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailLogger := logger.With("component", "email")
	var notifier service.Notifier
	emailClient := email.NewClient(cfg.PostmarkServerToken, cfg.EmailFrom, cfg.FrontendURL)
	if emailClient.Configured() {
		notifier = emailClient
	} else {
		emailLogger.Warn("POSTMARK_SERVER_TOKEN not set, emails will only be logged")
		notifier = email.NewLogNotifier(cfg.FrontendURL, !cfg.Production(), emailLogger)
	}

	srv, err := server.New(db, cfg, notifier, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, srv)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dealfinder listening", "addr", httpServer.Addr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down")
	shutdown(srv, httpServer, logger)
}

func shutdown(srv *server.Server, httpServer *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	srv.Hub().Close()

	// Verification and reset mails run detached from requests.
	srv.AuthService().Wait()
}

func runCleanup(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			srv.Cleanup(ctx)
		case <-ctx.Done():
			return
		}
	}
}
