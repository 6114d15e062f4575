package device

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	ddl := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			schema_json TEXT NOT NULL DEFAULT '{}',
			schema_synced_at TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := &Device{ID: "dev-1", Name: "Kitchen Sensor", Schema: schema.Schema{"tempC": "float"}}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Kitchen Sensor" {
		t.Errorf("Name = %q, want %q", got.Name, "Kitchen Sensor")
	}
	if got.Schema["tempC"] != "float" {
		t.Errorf("Schema = %v, want tempC=float", got.Schema)
	}
	if got.SchemaSyncedAt != nil {
		t.Errorf("SchemaSyncedAt = %v, want nil", got.SchemaSyncedAt)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestSQLiteRepository_CreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Device{ID: "dev-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, &Device{ID: "dev-1"})
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("Create() duplicate error = %v, want ErrDeviceExists", err)
	}
}

func TestSQLiteRepository_CreateInvalid(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Create(context.Background(), &Device{ID: "  "})
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("Create() error = %v, want ErrInvalidDevice", err)
	}
}

func TestSQLiteRepository_GetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_UpdateSchema(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Device{ID: "dev-1", Schema: schema.Schema{"old": "int"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated := schema.Schema{
		"tempC":    "float",
		"readings": map[string]any{"maxValue": "int"},
	}
	if err := repo.UpdateSchema(ctx, "dev-1", updated); err != nil {
		t.Fatalf("UpdateSchema() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if _, ok := got.Schema["old"]; ok {
		t.Error("UpdateSchema() should replace the schema, old key still present")
	}
	if got.Schema["tempC"] != "float" {
		t.Errorf("Schema[tempC] = %v, want float", got.Schema["tempC"])
	}
	nested, ok := got.Schema["readings"].(map[string]any)
	if !ok || nested["maxValue"] != "int" {
		t.Errorf("Schema[readings] = %v, want nested maxValue=int", got.Schema["readings"])
	}
	if got.SchemaSyncedAt == nil {
		t.Error("SchemaSyncedAt should be set after UpdateSchema")
	}
}

func TestSQLiteRepository_UpdateSchemaNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.UpdateSchema(context.Background(), "missing", schema.Schema{"a": "b"})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateSchema() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestSQLiteRepository_UpdateSchemaNilStoresEmpty(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Device{ID: "dev-1", Schema: schema.Schema{"a": "b"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.UpdateSchema(ctx, "dev-1", nil); err != nil {
		t.Fatalf("UpdateSchema() error = %v", err)
	}
	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Schema) != 0 {
		t.Errorf("Schema = %v, want empty", got.Schema)
	}
}

func TestSQLiteRepository_ConcurrentUpdateSchema(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &Device{ID: "dev-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, s := range []schema.Schema{{"a": "int"}, {"b": "int"}} {
		wg.Add(1)
		go func(s schema.Schema) {
			defer wg.Done()
			errs <- repo.UpdateSchema(ctx, "dev-1", s)
		}(s)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateSchema() error = %v", err)
		}
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	_, hasA := got.Schema["a"]
	_, hasB := got.Schema["b"]
	if hasA == hasB {
		t.Errorf("Schema = %v, want exactly one of the concurrent writes", got.Schema)
	}
}

func TestSQLiteRepository_ListAndDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"dev-b", "dev-a"} {
		if err := repo.Create(ctx, &Device{ID: id}); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 || devices[0].ID != "dev-a" {
		t.Fatalf("List() = %v, want [dev-a dev-b]", devices)
	}

	if err := repo.Delete(ctx, "dev-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "dev-a"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrDeviceNotFound", err)
	}
}

func TestValidateID(t *testing.T) {
	long := make([]byte, maxIDLength+1)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "dev-1", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"too long", string(long), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}
