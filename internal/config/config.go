// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/a-Leong/dutch.cards/internal/deck"
	"github.com/a-Leong/dutch.cards/internal/game"
)

// Config holds everything the process needs at startup. DatabaseURL and
// RedisAddr are optional; when empty the corresponding sinks are disabled.
type Config struct {
	ListenAddr    string
	JWTSecret     string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	LogLevel      string

	// MaxSeats is the largest roster the deck must be able to deal for.
	MaxSeats int
}

// Load reads the environment (after best-effort .env loading) and validates
// the result.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		MaxSeats:      8,
	}
	if v := os.Getenv("MAX_SEATS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("MAX_SEATS: %w", err)
		}
		cfg.MaxSeats = n
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the game cannot run under. A deck that
// cannot cover the deal for a full table is a startup error, not something
// to discover mid-deal.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MaxSeats < 2 {
		return fmt.Errorf("MAX_SEATS must be at least 2, got %d", c.MaxSeats)
	}
	if required := c.MaxSeats*game.HandSize + 1; required > deck.StandardSize {
		return fmt.Errorf("deck of %d cards cannot deal %d seats of %d plus the discard seed",
			deck.StandardSize, c.MaxSeats, game.HandSize)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
