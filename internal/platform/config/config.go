package config

import (
	"os"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres captures the request/notification store connection.
type Postgres struct {
	URL string
}

// Redis captures the verification-code store connection. An empty URL
// disables Redis and the memory store is used instead.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the lifecycle-event publisher. An empty broker list
// disables publishing entirely.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Config is everything main needs to wire the service.
type Config struct {
	Server      Server
	Postgres    Postgres
	Redis       Redis
	Kafka       Kafka
	PruneMaxAge time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("HEMOLINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if topic == "" {
		topic = "hemolink.request-events"
	}
	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	pruneMaxAge := 7 * 24 * time.Hour
	if raw := os.Getenv("HEMOLINK_PRUNE_MAX_AGE"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			pruneMaxAge = d
		}
	}

	return Config{
		Server: Server{
			Addr:          addr,
			JWTSigningKey: jwtSigningKey,
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Brokers: brokers,
			Topic:   topic,
		},
		PruneMaxAge: pruneMaxAge,
	}
}
