package database

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"todo-project/internal/config"
	"todo-project/pkg/logger"
)

// Open opens a Postgres pool from config. The pool is handed to callers rather
// than held as a package global so tests can construct isolated instances.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.DBPoolSize)
	db.SetMaxIdleConns(cfg.DBPoolSize / 2)
	logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	return db, nil
}

// EnsureSchema creates the todos table if absent. Idempotent; the store has no
// valid degraded mode without it, so callers treat failure as fatal.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS todos (
			id BIGINT PRIMARY KEY,
			text TEXT NOT NULL,
			done BOOLEAN DEFAULT FALSE
		)`)
	if err != nil {
		return err
	}
	logger.Info(ctx, "Todos table initialized")
	return nil
}
