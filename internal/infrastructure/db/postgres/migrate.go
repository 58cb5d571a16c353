package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

//go:embed migrations/001_init_schema.sql
var initSchemaSQL string

// Migrate creates the schema if it is absent. Every statement is
// "IF NOT EXISTS", so it runs unconditionally at each start.
func Migrate(ctx context.Context, db *pgxpool.Pool, log zerolog.Logger) error {
	log.Info().Msg("applying database schema")

	if _, err := db.Exec(ctx, initSchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	log.Info().Msg("database schema up to date")
	return nil
}
