package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leapstack-labs/provgate/pkg/core"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func testLineageRecord(datasetID string, at time.Time) *core.LineageRecord {
	return &core.LineageRecord{
		DatasetID:           datasetID,
		SourceSystems:       []string{"warehouse"},
		ExtractionTimestamp: at,
		Pipeline: []core.Step{
			{Name: "extraction", Source: "warehouse", Timestamp: at, OutputHash: "aaa", RowCount: 10, ColumnCount: 3},
		},
		QualityMetrics: map[string]any{"completeness": 0.98, "row_count": float64(10)},
		ContentHash:    "aaa",
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	tables := []string{"data_lineage", "model_data_lineage", "risk_assessments", "security_assessments", "audit_log", "models"}
	for _, table := range tables {
		rows, err := store.DB().Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	if err := store.InsertLineage(context.Background(), testLineageRecord("d", time.Now())); err == nil {
		t.Fatal("expected error on unopened store")
	}
}

func TestSQLiteStore_LineageRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	rec := testLineageRecord("dataset_abc", at)
	if err := store.InsertLineage(ctx, rec); err != nil {
		t.Fatalf("failed to insert lineage: %v", err)
	}

	got, err := store.GetLineage(ctx, "dataset_abc")
	if err != nil {
		t.Fatalf("failed to get lineage: %v", err)
	}
	if got.DatasetID != "dataset_abc" {
		t.Errorf("expected dataset id 'dataset_abc', got %q", got.DatasetID)
	}
	if len(got.SourceSystems) != 1 || got.SourceSystems[0] != "warehouse" {
		t.Errorf("unexpected source systems: %v", got.SourceSystems)
	}
	if len(got.Pipeline) != 1 || got.Pipeline[0].Name != "extraction" {
		t.Errorf("unexpected pipeline: %+v", got.Pipeline)
	}
	if got.ContentHash != "aaa" {
		t.Errorf("expected content hash 'aaa', got %q", got.ContentHash)
	}
	if !got.ExtractionTimestamp.Equal(at) {
		t.Errorf("expected extraction timestamp %v, got %v", at, got.ExtractionTimestamp)
	}
	if got.QualityMetrics["completeness"] != 0.98 {
		t.Errorf("unexpected quality metrics: %v", got.QualityMetrics)
	}
}

func TestSQLiteStore_UpdateLineage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	rec := testLineageRecord("dataset_abc", at)
	if err := store.InsertLineage(ctx, rec); err != nil {
		t.Fatalf("failed to insert lineage: %v", err)
	}

	pipeline := append(rec.Pipeline, core.Step{
		Name: "clean", Timestamp: at.Add(time.Minute), InputHash: "aaa", OutputHash: "bbb",
	})
	if err := store.UpdateLineage(ctx, "dataset_abc", pipeline, "bbb"); err != nil {
		t.Fatalf("failed to update lineage: %v", err)
	}

	got, err := store.GetLineage(ctx, "dataset_abc")
	if err != nil {
		t.Fatalf("failed to get lineage: %v", err)
	}
	if len(got.Pipeline) != 2 {
		t.Fatalf("expected 2 pipeline steps, got %d", len(got.Pipeline))
	}
	if got.ContentHash != "bbb" {
		t.Errorf("expected content hash 'bbb', got %q", got.ContentHash)
	}
}

func TestSQLiteStore_UpdateLineageMissing(t *testing.T) {
	store := setupTestStore(t)
	err := store.UpdateLineage(context.Background(), "ghost", nil, "x")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_GetLineageMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetLineage(context.Background(), "ghost")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_LinkRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	if err := store.InsertLineage(ctx, testLineageRecord("dataset_abc", at)); err != nil {
		t.Fatalf("failed to insert lineage: %v", err)
	}

	link := &core.LinkRecord{
		DatasetID:   "dataset_abc",
		ModelID:     "credit-scorer-v3",
		LinkedAt:    at.Add(time.Hour),
		DatasetHash: "aaa",
	}
	if err := store.InsertLink(ctx, link); err != nil {
		t.Fatalf("failed to insert link: %v", err)
	}

	got, err := store.GetLink(ctx, "dataset_abc")
	if err != nil {
		t.Fatalf("failed to get link: %v", err)
	}
	if got.ModelID != "credit-scorer-v3" || got.DatasetHash != "aaa" {
		t.Errorf("unexpected link: %+v", got)
	}

	if _, err := store.GetLink(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_RiskAssessments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.GetRiskAssessment(ctx, "m1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	older := &core.RiskAssessment{ModelID: "m1", Complete: false, CompletedAt: at, Assessor: "a"}
	newer := &core.RiskAssessment{ModelID: "m1", Complete: true, CompletedAt: at.AddDate(0, 1, 0), Assessor: "b"}
	if err := store.InsertRiskAssessment(ctx, older); err != nil {
		t.Fatalf("failed to insert assessment: %v", err)
	}
	if err := store.InsertRiskAssessment(ctx, newer); err != nil {
		t.Fatalf("failed to insert assessment: %v", err)
	}

	got, err := store.GetRiskAssessment(ctx, "m1")
	if err != nil {
		t.Fatalf("failed to get assessment: %v", err)
	}
	if !got.Complete || got.Assessor != "b" {
		t.Errorf("expected most recent assessment, got %+v", got)
	}
}

func TestSQLiteStore_SecurityAssessments(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := &core.SecurityAssessment{AssessmentID: "sec-1", ModelID: "m1", CompletedAt: at, Scanner: "trivy"}
	if err := store.InsertSecurityAssessment(ctx, a); err != nil {
		t.Fatalf("failed to insert security assessment: %v", err)
	}

	got, err := store.GetSecurityAssessment(ctx, "sec-1")
	if err != nil {
		t.Fatalf("failed to get security assessment: %v", err)
	}
	if got.Scanner != "trivy" || got.ModelID != "m1" {
		t.Errorf("unexpected assessment: %+v", got)
	}

	if _, err := store.GetSecurityAssessment(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_AuditLog(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := &core.AuditEntry{
			ID:         string(rune('a' + i)),
			EventType:  core.EventComplianceValidation,
			ModelID:    "m1",
			CanDeploy:  i%2 == 0,
			ChecksRun:  7,
			FullReport: "{}",
			Timestamp:  at.Add(time.Duration(i) * time.Hour),
		}
		if err := store.InsertAuditEntry(ctx, e); err != nil {
			t.Fatalf("failed to insert audit entry: %v", err)
		}
	}

	entries, err := store.ListAuditEntries(ctx, "m1", 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].ID != "c" || entries[2].ID != "a" {
		t.Errorf("expected newest-first ordering, got %s..%s", entries[0].ID, entries[2].ID)
	}

	limited, err := store.ListAuditEntries(ctx, "m1", 2)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 entries with limit, got %d", len(limited))
	}

	none, err := store.ListAuditEntries(ctx, "other-model", 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no entries for other model, got %d", len(none))
	}
}

func TestSQLiteStore_BulkInsertAuditEntries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	entries := []*core.AuditEntry{
		{ID: "b1", EventType: core.EventComplianceValidation, ModelID: "m1", FullReport: "{}", Timestamp: at},
		{ID: "b2", EventType: core.EventComplianceValidation, ModelID: "m1", FullReport: "{}", Timestamp: at.Add(time.Minute)},
	}
	if err := store.BulkInsertAuditEntries(ctx, entries); err != nil {
		t.Fatalf("failed to bulk insert: %v", err)
	}
	if err := store.BulkInsertAuditEntries(ctx, nil); err != nil {
		t.Fatalf("empty bulk insert should be a no-op: %v", err)
	}

	got, err := store.ListAuditEntries(ctx, "m1", 0)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}

func TestSQLiteStore_ModelMetadata(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.GetModelMetadata(ctx, "m1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	md := &core.ModelMetadata{
		ModelID:       "m1",
		DataLineageID: "lin-1",
		ModelCardID:   "card-1",
		RiskLevel:     core.RiskHigh,
		Full: core.FullMetadata{
			OversightMeasures: []string{"review"},
			AccuracyMetrics:   core.AccuracyMetrics{Accuracy: 0.9, F1Score: 0.85},
		},
	}
	if err := store.UpsertModelMetadata(ctx, md); err != nil {
		t.Fatalf("failed to upsert metadata: %v", err)
	}

	got, err := store.GetModelMetadata(ctx, "m1")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if got.DataLineageID != "lin-1" || got.RiskLevel != core.RiskHigh {
		t.Errorf("unexpected metadata: %+v", got)
	}

	// Upsert replaces.
	md.ModelCardID = "card-2"
	if err := store.UpsertModelMetadata(ctx, md); err != nil {
		t.Fatalf("failed to re-upsert metadata: %v", err)
	}
	got, err = store.GetModelMetadata(ctx, "m1")
	if err != nil {
		t.Fatalf("failed to get metadata: %v", err)
	}
	if got.ModelCardID != "card-2" {
		t.Errorf("expected updated model card, got %q", got.ModelCardID)
	}
}
