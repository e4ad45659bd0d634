package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		coords     DOUBLE PRECISION[] NOT NULL,
		stay_in    TEXT NOT NULL DEFAULT '',
		stay_out   TEXT NOT NULL DEFAULT '',
		spent      JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cities_name ON cities (name)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id         TEXT PRIMARY KEY,
		from_id    TEXT NOT NULL REFERENCES cities (id),
		to_id      TEXT NOT NULL REFERENCES cities (id),
		transport  TEXT NOT NULL,
		cost       DOUBLE PRECISION NOT NULL DEFAULT 0,
		note       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_from_id ON routes (from_id)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_to_id ON routes (to_id)`,
}

// EnsureSchema creates the cities and routes tables when missing.
// Routes reference cities without ON DELETE CASCADE: the application
// removes a city's routes itself before the city.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
