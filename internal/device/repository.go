package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

// Repository defines device persistence operations.
// The abstraction lets the schema sync orchestrator be tested without SQLite.
type Repository interface {
	// GetByID returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	List(ctx context.Context) ([]Device, error)

	// Create returns ErrDeviceExists if the ID is taken.
	Create(ctx context.Context, device *Device) error

	// UpdateSchema replaces the stored schema of an existing device.
	// Returns ErrDeviceNotFound if the device does not exist.
	UpdateSchema(ctx context.Context, id string, s schema.Schema) error

	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open, migrated SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `id, name, schema_json, schema_synced_at, created_at, updated_at`

// GetByID retrieves a device by its identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return d, nil
}

// List retrieves all devices ordered by ID.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if err := d.Validate(); err != nil {
		return err
	}

	schemaJSON, err := marshalSchema(d.Schema)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO devices (id, name, schema_json, schema_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.Name,
		schemaJSON,
		nullableTime(d.SchemaSyncedAt),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// UpdateSchema replaces the stored schema and stamps schema_synced_at.
func (r *SQLiteRepository) UpdateSchema(ctx context.Context, id string, s schema.Schema) error {
	schemaJSON, err := marshalSchema(s)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx, `
		UPDATE devices
		SET schema_json = ?, schema_synced_at = ?, updated_at = ?
		WHERE id = ?`,
		schemaJSON, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating device schema: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes a device by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner is implemented by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var schemaJSON, createdAt, updatedAt string
	var syncedAt sql.NullString

	if err := scanner.Scan(&d.ID, &d.Name, &schemaJSON, &syncedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(schemaJSON), &d.Schema); err != nil {
		return nil, fmt.Errorf("unmarshalling schema: %w", err)
	}

	if syncedAt.Valid {
		if t, err := time.Parse(time.RFC3339, syncedAt.String); err == nil {
			d.SchemaSyncedAt = &t
		}
	}

	var err error
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

// marshalSchema stores a nil schema as an empty object.
func marshalSchema(s schema.Schema) (string, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshalling schema: %w", err)
	}
	return string(b), nil
}

// nullableTime returns a sql.NullString for optional time pointers (as RFC3339 strings).
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// isUniqueConstraintError reports a primary-key or unique violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
