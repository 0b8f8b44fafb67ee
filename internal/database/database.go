// Package database holds the Postgres pool and best-effort audit writes.
// Authoritative game state lives in memory; everything written here is an
// audit trail plus the user accounts consumed by the auth layer.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a-Leong/dutch.cards/internal/models"
)

// DB is the shared connection pool. Nil when Postgres is not configured;
// callers must check before writing.
var DB *pgxpool.Pool

// ErrUserNotFound is returned by GetUserByUsername for unknown usernames.
var ErrUserNotFound = errors.New("user not found")

// Connect initializes DB from a connection URL and verifies it with a ping.
func Connect(ctx context.Context, url string) error {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}
	DB = pool
	return nil
}

// SaveDealSnapshot stores the deal result for a game so a finished game can
// be audited or replayed offline.
func SaveDealSnapshot(ctx context.Context, gameID uuid.UUID, snapshot any) error {
	if DB == nil {
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal deal snapshot: %w", err)
	}
	_, err = DB.Exec(ctx,
		`INSERT INTO game_deals (game_id, snapshot, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (game_id) DO UPDATE SET snapshot = EXCLUDED.snapshot`,
		gameID, data)
	if err != nil {
		return fmt.Errorf("upsert deal snapshot: %w", err)
	}
	return nil
}

// SaveCommandLog stores the full accepted-command log for a game.
func SaveCommandLog(ctx context.Context, gameID uuid.UUID, log any) error {
	if DB == nil {
		return nil
	}
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshal command log: %w", err)
	}
	_, err = DB.Exec(ctx,
		`INSERT INTO game_command_logs (game_id, commands, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (game_id) DO UPDATE SET commands = EXCLUDED.commands`,
		gameID, data)
	if err != nil {
		return fmt.Errorf("upsert command log: %w", err)
	}
	return nil
}

// CreateUser inserts a new account with a pre-hashed password.
func CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not configured")
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	_, err := DB.Exec(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)`,
		u.ID, u.Username, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByUsername looks up an account for credential verification.
func GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if DB == nil {
		return nil, errors.New("database not configured")
	}
	var u models.User
	err := DB.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
