package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string

	DB      DatabaseConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Scan    ScanConfig
	Scraper ScraperConfig
	Email   EmailConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig contains broker addresses and the price-drop topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// ScanConfig contains cadence and concurrency settings for the scan cycle.
type ScanConfig struct {
	Interval         time.Duration
	CycleBudget      time.Duration
	FetchConcurrency int
}

// ScraperConfig contains the optional proxy credential for page fetching.
// When APIKey is empty all fetches go direct.
type ScraperConfig struct {
	APIKey string
}

// EmailConfig contains the sender identity and AWS region for SES.
type EmailConfig struct {
	Sender    string
	AWSRegion string

	// SendTimeout and MaxAttempts bound each per-recipient send during
	// fan-out so one slow recipient cannot stall siblings.
	SendTimeout time.Duration
	MaxAttempts int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Kafka
	cfg.Kafka = KafkaConfig{
		Brokers: strings.Split(getEnv("KAFKA_BROKERS", "kafka:9092"), ","),
		Topic:   getEnv("KAFKA_TOPIC", "price-drop-events"),
		GroupID: getEnv("KAFKA_GROUP_ID", "price-drop-notifier"),
	}

	// Scraper proxy (optional)
	cfg.Scraper = ScraperConfig{
		APIKey: getEnv("SCRAPER_API_KEY", ""),
	}

	// Email
	cfg.Email = EmailConfig{
		Sender:      getEnv("SENDER_EMAIL", ""),
		AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		MaxAttempts: getEnvInt("EMAIL_MAX_ATTEMPTS", 3),
	}

	// Scan cycle (durations)
	var err error
	if cfg.Scan.Interval, err = parseDurationEnv("SCAN_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid SCAN_INTERVAL: %w", err)
	}
	if cfg.Scan.CycleBudget, err = parseDurationEnv("SCAN_CYCLE_BUDGET", "45m"); err != nil {
		return nil, fmt.Errorf("invalid SCAN_CYCLE_BUDGET: %w", err)
	}
	if cfg.Email.SendTimeout, err = parseDurationEnv("EMAIL_SEND_TIMEOUT", "20s"); err != nil {
		return nil, fmt.Errorf("invalid EMAIL_SEND_TIMEOUT: %w", err)
	}
	cfg.Scan.FetchConcurrency = getEnvInt("FETCH_CONCURRENCY", 5)
	if cfg.Scan.FetchConcurrency < 1 {
		cfg.Scan.FetchConcurrency = 1
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.Email.Sender == "" {
		return nil, errors.New("SENDER_EMAIL must be set for outgoing notifications")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
