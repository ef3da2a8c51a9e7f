// Package config reads the storefront service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port             string
	StorageDriver    string
	PostgresURL      string
	DBSchema         string
	KafkaBrokers     []string
	OrderEventsTopic string
	RedisURL         string
	IdempotencyTTL   time.Duration
	ReservationMode  string
	StepTimeout      time.Duration
	ImageBaseURL     string
	ImageBucket      string
	PlaceholderImage string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:             getenv("PORT", "8081"),
		StorageDriver:    strings.ToLower(getenv("STORAGE_DRIVER", DriverPostgres)),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		DBSchema:         getenv("DB_SCHEMA", "storefront"),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "order.placed"),
		RedisURL:         os.Getenv("REDIS_URL"),
		ReservationMode:  getenv("RESERVATION_POLICY", "strict"),
		ImageBaseURL:     os.Getenv("IMAGE_BASE_URL"),
		ImageBucket:      getenv("IMAGE_BUCKET", "product-images"),
		PlaceholderImage: getenv("PLACEHOLDER_IMAGE", "/placeholder.png"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.IdempotencyTTL, err = duration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StepTimeout, err = duration("CHECKOUT_STEP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("POSTGRES_URL is required when STORAGE_DRIVER is %s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
