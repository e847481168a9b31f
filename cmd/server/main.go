package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John42506176Linux/voice-assist/internal/config"
	"github.com/John42506176Linux/voice-assist/internal/ingest"
	"github.com/John42506176Linux/voice-assist/internal/observability"
	"github.com/John42506176Linux/voice-assist/internal/publish"
	"github.com/John42506176Linux/voice-assist/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("database_path", cfg.DatabasePath).
		Str("log_level", cfg.LogLevel).
		Bool("kafka_enabled", cfg.KafkaEnabled).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Transcription ingestion service starting")

	// Open the transcript store
	st, err := store.OpenSQLite(cfg.DatabasePath, observability.WithComponent("store"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open transcript store")
	}
	defer st.Close()

	// Optional Kafka fan-out of processed events
	publisher := publish.New(&publish.Config{
		Enabled:      cfg.KafkaEnabled,
		Brokers:      cfg.KafkaBrokers,
		TopicStored:  cfg.KafkaTopicStored,
		TopicPartial: cfg.KafkaTopicPartial,
		MaxFailures:  cfg.PublisherMaxFailures,
		ResetTimeout: time.Duration(cfg.PublisherResetTimeout) * time.Second,
	}, observability.WithComponent("publisher"))
	defer publisher.Close()

	handler := ingest.NewHandler(st, publisher, observability.WithComponent("ingest"))

	mux := http.NewServeMux()
	mux.HandleFunc("/", handler.ProcessTranscription())
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler("voice-assist", map[string]observability.HealthCheckFunc{
		"store": st.Ping,
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
