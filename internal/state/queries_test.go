package state

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/leapstack-labs/provgate/pkg/core"
)

func TestRebindPostgres(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "no placeholders",
			query: "SELECT 1",
			want:  "SELECT 1",
		},
		{
			name:  "single placeholder",
			query: "SELECT * FROM models WHERE model_id = ?",
			want:  "SELECT * FROM models WHERE model_id = $1",
		},
		{
			name:  "multiple placeholders",
			query: "INSERT INTO t (a, b, c) VALUES (?, ?, ?)",
			want:  "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)",
		},
		{
			name:  "double digit numbering",
			query: "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			want:  "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rebindPostgres(tt.query); got != tt.want {
				t.Errorf("rebindPostgres(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func setupMockStore(t *testing.T) (*dbStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &dbStore{db: db, rebind: func(q string) string { return q }}, mock
}

func TestDBStore_InsertLineageQueryError(t *testing.T) {
	store, mock := setupMockStore(t)
	mock.ExpectExec("INSERT INTO data_lineage").WillReturnError(errors.New("disk I/O error"))

	rec := &core.LineageRecord{DatasetID: "d", ExtractionTimestamp: time.Now()}
	if err := store.InsertLineage(context.Background(), rec); err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDBStore_GetLineageScanError(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{
		"dataset_id", "source_systems", "extraction_timestamp",
		"pipeline", "quality_metrics", "content_hash",
	}).AddRow("d", "not-json", time.Now(), "[]", "{}", "abc")
	mock.ExpectQuery("SELECT (.+) FROM data_lineage").WillReturnRows(rows)

	if _, err := store.GetLineage(context.Background(), "d"); err == nil {
		t.Fatal("expected decode error for malformed source_systems")
	}
}

func TestDBStore_BulkInsertRollsBackOnError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(insertAuditSQL))
	mock.ExpectExec(regexp.QuoteMeta(insertAuditSQL)).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	entries := []*core.AuditEntry{
		{ID: "e1", EventType: core.EventComplianceValidation, ModelID: "m", Timestamp: time.Now()},
	}
	if err := store.BulkInsertAuditEntries(context.Background(), entries); err == nil {
		t.Fatal("expected bulk insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDBStore_ListAuditEntriesWithoutLimit(t *testing.T) {
	store, mock := setupMockStore(t)

	cols := []string{"id", "event_type", "model_id", "can_deploy", "checks_run", "failure_count", "full_report", "created_at"}
	// A limit of zero or less must not produce a LIMIT clause at all.
	mock.ExpectQuery(`ORDER BY created_at DESC$`).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("e1", core.EventComplianceValidation, "m1", true, 7, 0, "{}", time.Now()))

	entries, err := store.ListAuditEntries(context.Background(), "m1", 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDBStore_UpdateLineageNotFound(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec("UPDATE data_lineage").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateLineage(context.Background(), "ghost", nil, "h")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
