package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akarpov/redscout/app/api"
	"github.com/akarpov/redscout/app/cfg"
	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
	"github.com/akarpov/redscout/app/notify"
	"github.com/akarpov/redscout/app/reddit"
	"github.com/akarpov/redscout/app/scan"
	"github.com/akarpov/redscout/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting RedScout", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	catalog, err := keywords.LoadCatalog(appCfg.KeywordsFile)
	if err != nil {
		slog.Error("Failed to load keywords catalog", "path", appCfg.KeywordsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Keywords catalog loaded",
		"subreddits", len(catalog.Subreddits()),
		"keywords", catalog.KeywordCount(),
		"categories", catalog.CategoryCount())

	matchRepo := database.NewMatchRepository(db)
	scanLogRepo := database.NewScanLogRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := reddit.NewFetcher(httpClient, appCfg.UserAgent)
	scorer := keywords.NewScorer(catalog)
	gate := scan.NewGate(matchRepo)

	var sender notify.Sender
	if appCfg.NotificationsEnabled() {
		sender = notify.NewSMTPSender(appCfg.SMTPHost, appCfg.SMTPPort,
			appCfg.SMTPUser, appCfg.SMTPPassword, appCfg.AlertFrom, appCfg.AlertTo)
		slog.Info("E-mail alerts enabled", "smtp_host", appCfg.SMTPHost, "to", appCfg.AlertTo)
	} else {
		slog.Warn("E-mail alerts disabled (SMTP_HOST or ALERT_TO not set)")
	}
	notifier := notify.NewNotifier(sender, appCfg.BaseUrl)

	scanner := scan.NewScanner(catalog, scorer, fetcher, gate, notifier,
		matchRepo, scanLogRepo, appCfg.PostLimit)

	scheduler := tasks.NewScheduler(scanner, appCfg.ScanSchedule)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	handler := api.NewHandler(matchRepo, scanLogRepo, scanner, catalog)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // a triggered scan runs synchronously
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
