package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL is required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Push gateway
	PushGatewayURL string
	PushTimeout    time.Duration

	// Digest processor. The grouping window is the minimum age an event
	// must reach before it is eligible for summarization; the interval is
	// how often the drain tick runs.
	GroupingWindow     time.Duration
	ProcessingInterval time.Duration
	DispatchTimeout    time.Duration

	// Intake
	IntakeWriters  int
	IntakeCapacity int

	// Rate limiting: maximum gateway sends per second
	DispatchRate int

	// Retention of delivered rows
	RetentionPeriod time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		PushGatewayURL: getEnv("PUSH_GATEWAY_URL", "http://localhost:9100"),
		PushTimeout:    getDuration("PUSH_TIMEOUT", 10*time.Second),

		GroupingWindow:     getDuration("GROUPING_WINDOW", 5*time.Minute),
		ProcessingInterval: getDuration("PROCESSING_INTERVAL", time.Minute),
		DispatchTimeout:    getDuration("DISPATCH_TIMEOUT", 15*time.Second),

		IntakeWriters:  getInt("INTAKE_WRITERS", 4),
		IntakeCapacity: getInt("INTAKE_CAPACITY", 4096),

		DispatchRate: getInt("DISPATCH_RATE_PER_SEC", 50),

		RetentionPeriod: getDuration("RETENTION_PERIOD", 720*time.Hour),
		CleanupInterval: getDuration("CLEANUP_INTERVAL", time.Hour),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
