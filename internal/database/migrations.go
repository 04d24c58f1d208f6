package database

import (
	"context"
	"embed"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// Migrate applies all pending embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	return NewMigrator(db.Pool, db.logger).MigrateFromFS(ctx, migrationFS, "migrations")
}
