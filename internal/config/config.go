package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr       string
	GatewayURL     string
	GatewayTimeout time.Duration // 0 means no timeout
	JWTSecret      string
	SessionTTL     time.Duration
	RedisAddr      string   // empty keeps sessions in memory only
	OrderDBDSNs    []string // empty disables the receipt ledger
	KafkaBrokers   []string // empty disables order events
	OrderTopic     string
	CatalogFile    string // empty uses the embedded catalog
	RateLimit      float64
	RateBurst      int
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8084"),
		GatewayURL:   getEnv("GATEWAY_URL", "https://student-backend-wm44.onrender.com"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OrderDBDSNs:  splitList(os.Getenv("ORDER_DB_DSNS")),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:   getEnv("ORDER_TOPIC", "storefront-order-topic"),
		CatalogFile:  os.Getenv("CATALOG_FILE"),
	}

	var err error
	if cfg.GatewayTimeout, err = durationEnv("GATEWAY_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = floatEnv("RATE_LIMIT", 5); err != nil {
		return nil, err
	}
	burst, err := floatEnv("RATE_BURST", 10)
	if err != nil {
		return nil, err
	}
	cfg.RateBurst = int(burst)

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
