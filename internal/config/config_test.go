package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "notifier")
	t.Setenv("DB_NAME", "notifier")
	t.Setenv("SENDER_EMAIL", "alerts@example.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Scan.Interval != time.Hour {
		t.Errorf("Scan.Interval = %v, want 1h", cfg.Scan.Interval)
	}
	if cfg.Scan.CycleBudget != 45*time.Minute {
		t.Errorf("Scan.CycleBudget = %v, want 45m", cfg.Scan.CycleBudget)
	}
	if cfg.Scan.FetchConcurrency != 5 {
		t.Errorf("Scan.FetchConcurrency = %d, want 5", cfg.Scan.FetchConcurrency)
	}
	if cfg.Email.SendTimeout != 20*time.Second {
		t.Errorf("Email.SendTimeout = %v, want 20s", cfg.Email.SendTimeout)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "kafka:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("SENDER_EMAIL", "alerts@example.com")

	if _, err := Load(); err == nil {
		t.Error("Load succeeded without database configuration")
	}
}

func TestLoadRequiresSender(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SENDER_EMAIL", "")

	if _, err := Load(); err == nil {
		t.Error("Load succeeded without SENDER_EMAIL")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SCAN_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Error("Load accepted an unparseable SCAN_INTERVAL")
	}
}

func TestLoadTrimsPublicBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PUBLIC_BASE_URL", "https://notifier.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.PublicBaseURL != "https://notifier.example.com" {
		t.Errorf("PublicBaseURL = %q, want trailing slash trimmed", cfg.PublicBaseURL)
	}
}
