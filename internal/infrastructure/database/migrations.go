package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// gooseDialect is the goose dialect name for mattn/go-sqlite3.
const gooseDialect = "sqlite3"

// MigrationsFS is set by the migrations package so SQL files are compiled
// into the binary. A nil value means there is nothing to migrate.
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS containing migration files.
var MigrationsDir = "."

// Migrate applies all pending migrations in version order.
// goose runs each migration in its own transaction, so a failure leaves the
// earlier migrations applied and the failing one rolled back.
func (db *DB) Migrate(ctx context.Context) error {
	if MigrationsFS == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB, MigrationsDir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
// This is primarily for development and testing.
func (db *DB) MigrateDown(ctx context.Context) error {
	if MigrationsFS == nil {
		return nil
	}
	if err := prepareGoose(); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB, MigrationsDir); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Version returns the currently applied migration version (0 when none).
func (db *DB) Version(ctx context.Context) (int64, error) {
	if err := prepareGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db.DB)
	if err != nil {
		return 0, fmt.Errorf("reading migration version: %w", err)
	}
	return v, nil
}

// prepareGoose points goose's package-level state at our embedded files.
func prepareGoose() error {
	goose.SetBaseFS(MigrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	return nil
}
