// Package database provides SQLite connectivity for the local device store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations (goose, embedded SQL files)
//   - Connection pool tuning for SQLite's single writer
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files live in the top-level migrations package and use goose's
// annotated format (-- +goose Up / -- +goose Down).
package database
