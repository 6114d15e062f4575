// Package device provides the local device record store.
//
// The store is a materialised view of what the remote schema authority
// holds: each row keeps a device's identity and its last synchronised
// schema (already normalized to the canonical naming convention).
//
//	repo := device.NewSQLiteRepository(db.DB)
//	err := repo.UpdateSchema(ctx, "dev-1", schema.Schema{"tempC": "float"})
//
// The store is safe for concurrent use; SQLite serialises writers and two
// concurrent schema updates for the same device resolve last-write-wins.
package device
