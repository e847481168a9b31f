package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.DatabasePath != "transcriptions.db" {
		t.Errorf("Expected default DatabasePath 'transcriptions.db', got '%s'", cfg.DatabasePath)
	}
	if cfg.DashboardPort != "8081" {
		t.Errorf("Expected default DashboardPort '8081', got '%s'", cfg.DashboardPort)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("Expected default PollInterval 2s, got %s", cfg.PollInterval)
	}
	if cfg.RefreshStrategy != "interval" {
		t.Errorf("Expected default RefreshStrategy 'interval', got '%s'", cfg.RefreshStrategy)
	}
	if cfg.KafkaEnabled {
		t.Error("Expected Kafka to be disabled by default")
	}
	if !cfg.MetricsEnabled {
		t.Error("Expected metrics to be enabled by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DATABASE_PATH", "/tmp/test.db")
	os.Setenv("POLL_INTERVAL", "5s")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("DATABASE_PATH")
	defer os.Unsetenv("POLL_INTERVAL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected Port '9090', got '%s'", cfg.Port)
	}
	if cfg.DatabasePath != "/tmp/test.db" {
		t.Errorf("Expected DatabasePath '/tmp/test.db', got '%s'", cfg.DatabasePath)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("Expected PollInterval 5s, got %s", cfg.PollInterval)
	}
}

func TestLoad_KafkaRequiresBrokers(t *testing.T) {
	os.Setenv("KAFKA_ENABLED", "true")
	defer os.Unsetenv("KAFKA_ENABLED")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when Kafka is enabled without brokers")
	}
}

func TestLoad_InvalidRefreshStrategy(t *testing.T) {
	os.Setenv("REFRESH_STRATEGY", "websocket")
	defer os.Unsetenv("REFRESH_STRATEGY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown refresh strategy")
	}
}

func TestLoad_PollIntervalClamped(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{"below minimum", "10ms", MinPollInterval},
		{"above maximum", "5m", MaxPollInterval},
		{"within bounds", "30s", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("POLL_INTERVAL", tt.value)
			defer os.Unsetenv("POLL_INTERVAL")

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if cfg.PollInterval != tt.expected {
				t.Errorf("Expected PollInterval %s, got %s", tt.expected, cfg.PollInterval)
			}
		})
	}
}
