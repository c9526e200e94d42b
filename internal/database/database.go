package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx"
	_ "github.com/lib/pq"              // driver "postgres"
	"github.com/rs/zerolog/log"

	"kitchen_inventory_backend/internal/config"
)

const (
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

// Open connects with the configured driver and pings until the database answers.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	attempts := cfg.PingRetries
	if attempts <= 0 {
		attempts = 1
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if cfg.MaxOpen > 0 {
		db.SetMaxOpenConns(cfg.MaxOpen)
		db.SetMaxIdleConns(cfg.MaxOpen)
	}

	for i := 1; i <= attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, pingTTL)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			log.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Str("database", cfg.Name).Msg("Successfully connected to the database")
			return db, nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("max_attempts", attempts).Msg("Database ping failed")

		if i == attempts {
			break
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("db ping canceled: %w", ctx.Err())
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// ApplySchema reads and executes the schema file. An empty path is a no-op.
func ApplySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		log.Debug().Msg("No schema path provided, skipping schema application")
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	log.Info().Str("path", schemaPath).Msg("Database schema applied successfully")
	return nil
}
