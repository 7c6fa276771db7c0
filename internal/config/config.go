// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// CORS
	CORSOrigins []string

	// Submission Gate rate limiting (C10), by client IP
	SubmitRateLimitPerMinute int

	// Worker
	WorkerPollInterval        time.Duration // How often to poll for new jobs (default 5s)
	WorkerMaxPollInterval     time.Duration // Backoff ceiling when no jobs are found
	WorkerConcurrency         int           // Number of concurrent workers (default 3)
	WorkerShutdownGracePeriod time.Duration // Max time to wait for running jobs during shutdown

	// Pipeline timing
	JobTimeout   time.Duration // Whole-job deadline (default 600s)
	FetchTimeout time.Duration // Per-request timeout (default 30s)

	// Freshness (C8)
	PublisherFreshnessTTL time.Duration // Skip re-running publisher-level steps within this window
	ArticleFreshnessTTL   time.Duration // Skip re-running article-level steps within this window

	// Fetch Manager (C2)
	RobotsUserAgent  string   // Loaded from ROBOTS_USER_AGENT; not read by other packages (robots.txt matching uses robots.ScraperUserAgent)
	FetchStrategies  []string // ordered strategy identifiers, e.g. ["direct", "proxy"]
	ProxyAPIURL      string
	ProxyAPIKey      string
	ProxyAPIAuthUser string // basic-auth username; ProxyAPIKey is sent as the basic-auth password

	// WAF fingerprinter collaborator (external service)
	WAFFingerprintURL string

	// LLM collaborators
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration // per-call timeout before the single retry

	// Telemetry / logging
	LogFormat string // "text" or "json"
	LogLevel  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:pubscope.db?_journal=WAL&_timeout=5000"),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		SubmitRateLimitPerMinute: getEnvInt("SUBMIT_RATE_LIMIT_PER_MINUTE", 30),

		WorkerPollInterval:        getEnvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		WorkerMaxPollInterval:     getEnvDuration("WORKER_MAX_POLL_INTERVAL", 30*time.Second),
		WorkerConcurrency:         getEnvInt("WORKER_CONCURRENCY", 3),
		WorkerShutdownGracePeriod: getEnvDuration("WORKER_SHUTDOWN_GRACE_PERIOD", 5*time.Minute),

		JobTimeout:   getEnvDuration("JOB_TIMEOUT", 600*time.Second),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		PublisherFreshnessTTL: getEnvDuration("PUBLISHER_FRESHNESS_TTL", 24*time.Hour),
		ArticleFreshnessTTL:   getEnvDuration("ARTICLE_FRESHNESS_TTL", time.Hour),

		RobotsUserAgent:  getEnv("ROBOTS_USER_AGENT", "itsascout"),
		FetchStrategies:  getEnvSlice("FETCH_STRATEGIES", []string{"direct", "proxy"}),
		ProxyAPIURL:      getEnv("PROXY_API_URL", ""),
		ProxyAPIKey:      getEnv("PROXY_API_KEY", ""),
		ProxyAPIAuthUser: getEnv("PROXY_API_AUTH_USER", ""),

		WAFFingerprintURL: getEnv("WAF_FINGERPRINT_URL", ""),

		LLMAPIKey:  getEnv("GEMINI_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMTimeout: getEnvDuration("LLM_TIMEOUT", 20*time.Second),

		LogFormat: getEnv("LOG_FORMAT", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}

	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if v, set := os.LookupEnv("FETCH_STRATEGIES"); len(cfg.FetchStrategies) == 0 || (set && strings.TrimSpace(v) == "") {
		return nil, fmt.Errorf("FETCH_STRATEGIES must not be empty")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
