package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/John42506176Linux/voice-assist/internal/config"
	"github.com/John42506176Linux/voice-assist/internal/dashboard"
	"github.com/John42506176Linux/voice-assist/internal/observability"
	"github.com/John42506176Linux/voice-assist/internal/resilience"
	"github.com/John42506176Linux/voice-assist/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.DashboardPort).
		Str("database_path", cfg.DatabasePath).
		Str("refresh_strategy", cfg.RefreshStrategy).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Transcript dashboard starting")

	// The dashboard reads the same database the ingestion service writes.
	st, err := store.OpenSQLite(cfg.DatabasePath, observability.WithComponent("store"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open transcript store")
	}
	defer st.Close()

	hub := dashboard.NewHub(observability.WithComponent("hub"))
	go hub.Run()

	var strategy dashboard.RefreshStrategy
	var manual *dashboard.ManualStrategy
	if cfg.RefreshStrategy == "manual" {
		manual = &dashboard.ManualStrategy{}
		strategy = manual
	} else {
		strategy = &dashboard.IntervalStrategy{Interval: cfg.PollInterval}
	}

	state := dashboard.NewSessionState()
	retry := &resilience.RetryConfig{
		MaxAttempts:    cfg.PollMaxRetries,
		InitialBackoff: cfg.PollRetryBackoff,
		MaxBackoff:     cfg.PollInterval,
		Multiplier:     2.0,
	}
	poller := dashboard.NewPoller(st, strategy, state, retry, hub.Broadcast, observability.WithComponent("poller"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prime the page before the first strategy tick.
	if err := poller.PollOnce(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial poll failed")
	}
	go poller.Run(ctx)

	srv := dashboard.NewServer(st, state, hub, manual, cfg.PollInterval, observability.WithComponent("dashboard"))
	mux := http.NewServeMux()
	srv.Routes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.DashboardPort),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.DashboardPort).Msg("Dashboard listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Dashboard failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down dashboard...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Dashboard forced to shutdown")
	}

	logger.Info().Msg("Dashboard exited gracefully")
}
