package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything main needs to wire the process. All values come
// from the environment; empty DatabaseURL or RedisURL selects the in-memory
// fallbacks for local runs.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	JWTSigningKey   string
	ShutdownTimeout time.Duration
	ActivityBuffer  int
	GenerateLockTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("ACREDITA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSigningKey:   jwtSigningKey,
		ShutdownTimeout: durationFromEnv("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		ActivityBuffer:  intFromEnv("ACTIVITY_BUFFER", 64),
		GenerateLockTTL: durationFromEnv("GENERATE_LOCK_TTL_SECONDS", 30*time.Second),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
