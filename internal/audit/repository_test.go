package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-connector/internal/schemasync"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	ddl := `
		CREATE TABLE sync_log (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			step TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
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

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{DeviceID: "dev-1", Step: "done", CreatedAt: base},
		{DeviceID: "dev-1", Step: "remote_write", Error: "unreachable", CreatedAt: base.Add(time.Second)},
		{DeviceID: "dev-2", Step: "done", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 3 || len(all.Entries) != 3 {
		t.Fatalf("List() total = %d, len = %d, want 3", all.Total, len(all.Entries))
	}
	if all.Entries[0].DeviceID != "dev-2" {
		t.Errorf("first entry = %s, want most recent (dev-2)", all.Entries[0].DeviceID)
	}
	if all.Limit != defaultLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultLimit)
	}

	dev1, err := repo.List(ctx, Filter{DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("List(dev-1) error = %v", err)
	}
	if dev1.Total != 2 {
		t.Errorf("List(dev-1) total = %d, want 2", dev1.Total)
	}

	failed, err := repo.List(ctx, Filter{FailedOnly: true})
	if err != nil {
		t.Fatalf("List(failed) error = %v", err)
	}
	if failed.Total != 1 || !failed.Entries[0].Failed() || failed.Entries[0].Error != "unreachable" {
		t.Errorf("List(failed) = %+v", failed)
	}
	if !failed.Entries[0].CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", failed.Entries[0].CreatedAt, base.Add(time.Second))
	}
}

func TestSQLiteRepository_ListPagination(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		if err := repo.Create(ctx, &Entry{DeviceID: "dev-1", Step: "done", CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 5 || len(page.Entries) != 1 {
		t.Errorf("List() total = %d, len = %d, want 5, 1", page.Total, len(page.Entries))
	}
	if !page.Entries[0].CreatedAt.Equal(base) {
		t.Errorf("last page entry = %v, want oldest", page.Entries[0].CreatedAt)
	}

	clamped, err := repo.List(ctx, Filter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if clamped.Limit != maxLimit || clamped.Offset != 0 {
		t.Errorf("clamped limit/offset = %d/%d", clamped.Limit, clamped.Offset)
	}
}

func TestSQLiteRepository_CreateRequiresDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	if err := repo.Create(context.Background(), &Entry{Step: "done"}); err == nil {
		t.Error("Create() without device id should fail")
	}
}

func TestSQLiteRepository_RecordSync(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	repo.RecordSync(schemasync.Result{DeviceID: "dev-1", Step: schemasync.StepDone}, 42*time.Millisecond)
	repo.RecordSync(schemasync.Result{
		DeviceID: "dev-1",
		Step:     schemasync.StepLocalWrite,
		Err:      errors.New("disk full"),
	}, time.Millisecond)

	res, err := repo.List(context.Background(), Filter{DeviceID: "dev-1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d, want 2", res.Total)
	}

	var sawFailure, sawSuccess bool
	for _, e := range res.Entries {
		switch {
		case e.Step == "local_write" && e.Error == "disk full":
			sawFailure = true
		case e.Step == "done" && e.DurationMS == 42 && !e.Failed():
			sawSuccess = true
		}
	}
	if !sawFailure || !sawSuccess {
		t.Errorf("entries = %+v", res.Entries)
	}
}

func TestSQLiteRepository_RecordSyncReportsErrors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	var got error
	repo.SetOnError(func(err error) { got = err })

	if _, err := db.Exec("DROP TABLE sync_log"); err != nil {
		t.Fatalf("dropping table: %v", err)
	}
	repo.RecordSync(schemasync.Result{DeviceID: "dev-1", Step: schemasync.StepDone}, 0)

	if got == nil {
		t.Error("RecordSync() did not report the insert failure")
	}
}
