// Package main implements a service that monitors the temple booking API for
// newly opened darshan and aarti slots and pushes change notifications to a
// webhook when new availability is detected.
package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"darshan-notifier/auth"
	"darshan-notifier/availability"
	"darshan-notifier/config"
	"darshan-notifier/monitor"
	"darshan-notifier/notify"
	"darshan-notifier/server"
	"darshan-notifier/storage"
	"darshan-notifier/upstream"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	client := upstream.New(httpClient, cfg.UpstreamBaseURL, cfg.TempleID, logger)
	aggregator := availability.New(client, logger)
	snapshots := storage.New()

	var provider notify.Provider
	if cfg.WebhookURL != "" {
		provider = notify.NewWebhookProvider(httpClient, cfg.WebhookURL, logger)
	} else {
		logger.Warn("SLACK_WEBHOOK_URL not set, notification delivery disabled")
	}
	sender := notify.New(provider, logger, cfg.DashboardURL)

	mon := monitor.New(aggregator, snapshots, sender, logger)

	resolver := auth.NewResolver(cfg.APIToken)
	login := auth.NewLogin(httpClient, cfg.UpstreamBaseURL, resolver, logger)

	srv := server.New(&server.Config{
		Poller:   mon,
		Lister:   aggregator,
		Resolver: resolver,
		OTP:      login,
		Logger:   logger,
	})

	if err := srv.ListenAndServe(cfg.Port); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
