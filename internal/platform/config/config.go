// Package config builds runtime configuration from the environment so main
// stays lean. Every subsystem gets its own struct with development defaults;
// production deployments override through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	TokenLifetime time.Duration
}

// RedisConfig captures session store settings for the Redis backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig captures the durable store settings.
type PostgresConfig struct {
	URL string
}

// KafkaConfig captures the audit relay settings.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// PlatformAPIConfig points at the authoritative compliance backend.
type PlatformAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// EnrichmentConfig points at the candidate-generation collaborator.
type EnrichmentConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	Server      Server
	Redis       RedisConfig
	Postgres    PostgresConfig
	Kafka       KafkaConfig
	PlatformAPI PlatformAPIConfig
	Enrichment  EnrichmentConfig
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("ONBOARD_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     envOr("JWT_ISSUER", "onboard"),
			TokenLifetime: envDuration("SESSION_TOKEN_LIFETIME", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("POSTGRES_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: envOr("KAFKA_AUDIT_TOPIC", "onboard.audit"),
		},
		PlatformAPI: PlatformAPIConfig{
			BaseURL: envOr("PLATFORM_API_URL", "http://localhost:9090"),
			Timeout: envDuration("PLATFORM_API_TIMEOUT", 15*time.Second),
		},
		Enrichment: EnrichmentConfig{
			BaseURL: envOr("ENRICHMENT_API_URL", "http://localhost:9091"),
			Timeout: envDuration("ENRICHMENT_API_TIMEOUT", 30*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
