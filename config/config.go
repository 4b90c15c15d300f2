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

type Config struct {
	Port            string
	GinMode         string
	LogLevel        string
	ShutdownTimeout time.Duration

	Database DatabaseConfig

	// JWTSecret verifies access tokens issued by the accounts service.
	// Empty disables authentication.
	JWTSecret []byte

	Kafka KafkaConfig

	SweepInterval     time.Duration
	OrderAcceptWindow time.Duration
	FinalizedLimit    int
}

type DatabaseConfig struct {
	Driver     string // postgres | sqlite
	URL        string
	SQLitePath string
}

type KafkaConfig struct {
	Brokers     []string
	StatusTopic string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	shutdown, err := durationEnv("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	sweep, err := durationEnv("SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	window, err := durationEnv("ORDER_ACCEPT_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	limit, err := strconv.Atoi(getEnv("FINALIZED_LIMIT", "50"))
	if err != nil {
		return nil, fmt.Errorf("FINALIZED_LIMIT: %w", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         os.Getenv("GIN_MODE"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: shutdown,
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			URL:        os.Getenv("DATABASE_URL"),
			SQLitePath: getEnv("SQLITE_PATH", "delivery.db"),
		},
		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		Kafka: KafkaConfig{
			Brokers:     CSV(os.Getenv("KAFKA_BROKERS")),
			StatusTopic: getEnv("KAFKA_STATUS_TOPIC", "pedidos.status"),
		},
		SweepInterval:     sweep,
		OrderAcceptWindow: window,
		FinalizedLimit:    limit,
	}, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	if c.OrderAcceptWindow <= 0 {
		return errors.New("ORDER_ACCEPT_WINDOW must be positive")
	}
	if c.FinalizedLimit <= 0 {
		return errors.New("FINALIZED_LIMIT must be positive")
	}
	return nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return len(c.JWTSecret) > 0
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// CSV splits a comma separated list, dropping blanks.
func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
