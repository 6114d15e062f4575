package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// recordTimeout bounds a single history insert made from RecordSync.
	recordTimeout = 5 * time.Second

	// timeLayout is fixed width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Entry is one recorded synchronisation attempt.
type Entry struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	Step       string    `json:"step"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Failed reports whether the attempt ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Filter controls which entries List returns.
type Filter struct {
	DeviceID   string // optional: only this device
	FailedOnly bool   // only attempts that ended in an error
	Limit      int    // default 50, max 200
	Offset     int
}

// ListResult is a page of history entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the sync history operations.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores sync history in the sync_log table.
type SQLiteRepository struct {
	db *sql.DB

	mu      sync.RWMutex
	onError func(err error)
}

// NewSQLiteRepository creates a new sync history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SetOnError sets a callback for failures inside RecordSync, which has no
// caller to return them to.
func (r *SQLiteRepository) SetOnError(callback func(err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onError = callback
}

// Create inserts an entry. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, entry *Entry) error {
	if entry.DeviceID == "" {
		return fmt.Errorf("inserting sync log: device id is required")
	}
	if entry.ID == "" {
		entry.ID = "sync-" + uuid.NewString()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, device_id, step, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DeviceID, entry.Step,
		nullableString(entry.Error), entry.DurationMS,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting sync log: %w", err)
	}
	return nil
}

// RecordSync stores the outcome of one orchestrator run.
func (r *SQLiteRepository) RecordSync(result schemasync.Result, elapsed time.Duration) {
	entry := &Entry{
		DeviceID:   result.DeviceID,
		Step:       string(result.Step),
		DurationMS: elapsed.Milliseconds(),
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.Create(ctx, entry); err != nil {
		r.mu.RLock()
		cb := r.onError
		r.mu.RUnlock()
		if cb != nil {
			cb(err)
		}
	}
}

// nullableString maps "" to NULL for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.FailedOnly {
		conditions = append(conditions, "error IS NOT NULL")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sync_log %s", where) //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting sync log: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		"SELECT id, device_id, step, error, duration_ms, created_at FROM sync_log %s ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var errMsg sql.NullString
		var createdAt string

		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Step, &errMsg, &e.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		if errMsg.Valid {
			e.Error = errMsg.String
		}

		t, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing sync log timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t

		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync log: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

var _ schemasync.Recorder = (*SQLiteRepository)(nil)
