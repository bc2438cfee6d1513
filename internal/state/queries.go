package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leapstack-labs/provgate/pkg/core"
)

var errNotOpened = fmt.Errorf("database not opened")

// dbStore holds the query implementations shared by the SQLite and Postgres
// backends. Queries are written with ? placeholders; rebind translates them
// to the backend's native form.
type dbStore struct {
	db     *sql.DB
	rebind func(string) string
}

const insertAuditSQL = `INSERT INTO audit_log (id, event_type, model_id, can_deploy, checks_run, failure_count, full_report, created_at)
 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// --- Lineage operations ---

// InsertLineage persists a new lineage record.
func (s *dbStore) InsertLineage(ctx context.Context, rec *core.LineageRecord) error {
	if s.db == nil {
		return errNotOpened
	}

	sources, err := json.Marshal(rec.SourceSystems)
	if err != nil {
		return fmt.Errorf("encode source systems: %w", err)
	}
	pipeline, err := json.Marshal(rec.Pipeline)
	if err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}
	metrics, err := json.Marshal(rec.QualityMetrics)
	if err != nil {
		return fmt.Errorf("encode quality metrics: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO data_lineage (dataset_id, source_systems, extraction_timestamp, pipeline, quality_metrics, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		rec.DatasetID, string(sources), rec.ExtractionTimestamp, string(pipeline), string(metrics), rec.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lineage record: %w", err)
	}
	return nil
}

// UpdateLineage replaces a record's pipeline and content hash after a new
// transformation step was appended.
func (s *dbStore) UpdateLineage(ctx context.Context, datasetID string, pipeline []core.Step, contentHash string) error {
	if s.db == nil {
		return errNotOpened
	}

	encoded, err := json.Marshal(pipeline)
	if err != nil {
		return fmt.Errorf("encode pipeline: %w", err)
	}

	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE data_lineage SET pipeline = ?, content_hash = ? WHERE dataset_id = ?`),
		string(encoded), contentHash, datasetID,
	)
	if err != nil {
		return fmt.Errorf("failed to update lineage record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("lineage %s: %w", datasetID, core.ErrNotFound)
	}
	return nil
}

// GetLineage retrieves a lineage record by dataset id.
func (s *dbStore) GetLineage(ctx context.Context, datasetID string) (*core.LineageRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var (
		rec      core.LineageRecord
		sources  string
		pipeline string
		metrics  string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT dataset_id, source_systems, extraction_timestamp, pipeline, quality_metrics, content_hash
		 FROM data_lineage WHERE dataset_id = ?`), datasetID,
	).Scan(&rec.DatasetID, &sources, &rec.ExtractionTimestamp, &pipeline, &metrics, &rec.ContentHash)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lineage %s: %w", datasetID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lineage record: %w", err)
	}

	if err := json.Unmarshal([]byte(sources), &rec.SourceSystems); err != nil {
		return nil, fmt.Errorf("decode source systems: %w", err)
	}
	if err := json.Unmarshal([]byte(pipeline), &rec.Pipeline); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &rec.QualityMetrics); err != nil {
		return nil, fmt.Errorf("decode quality metrics: %w", err)
	}
	return &rec, nil
}

// InsertLink persists the immutable dataset-to-model link.
func (s *dbStore) InsertLink(ctx context.Context, link *core.LinkRecord) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO model_data_lineage (dataset_id, model_id, linked_at, dataset_hash) VALUES (?, ?, ?, ?)`),
		link.DatasetID, link.ModelID, link.LinkedAt, link.DatasetHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert link record: %w", err)
	}
	return nil
}

// GetLink retrieves the link record for a dataset.
func (s *dbStore) GetLink(ctx context.Context, datasetID string) (*core.LinkRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var link core.LinkRecord
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT dataset_id, model_id, linked_at, dataset_hash FROM model_data_lineage WHERE dataset_id = ?`),
		datasetID,
	).Scan(&link.DatasetID, &link.ModelID, &link.LinkedAt, &link.DatasetHash)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link for %s: %w", datasetID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link record: %w", err)
	}
	return &link, nil
}

// --- Assessment operations ---

// GetRiskAssessment returns the most recent risk assessment for a model.
func (s *dbStore) GetRiskAssessment(ctx context.Context, modelID string) (*core.RiskAssessment, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var (
		a        core.RiskAssessment
		assessor sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT model_id, assessment_complete, completed_at, assessor FROM risk_assessments
		 WHERE model_id = ? ORDER BY completed_at DESC LIMIT 1`), modelID,
	).Scan(&a.ModelID, &a.Complete, &a.CompletedAt, &assessor)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("risk assessment for %s: %w", modelID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk assessment: %w", err)
	}
	a.Assessor = assessor.String
	return &a, nil
}

// InsertRiskAssessment persists a risk assessment row.
func (s *dbStore) InsertRiskAssessment(ctx context.Context, a *core.RiskAssessment) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO risk_assessments (model_id, assessment_complete, completed_at, assessor) VALUES (?, ?, ?, ?)`),
		a.ModelID, a.Complete, a.CompletedAt, a.Assessor,
	)
	if err != nil {
		return fmt.Errorf("failed to insert risk assessment: %w", err)
	}
	return nil
}

// GetSecurityAssessment retrieves a security assessment by id.
func (s *dbStore) GetSecurityAssessment(ctx context.Context, assessmentID string) (*core.SecurityAssessment, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var (
		a       core.SecurityAssessment
		modelID sql.NullString
		scanner sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT assessment_id, model_id, completed_at, scanner FROM security_assessments WHERE assessment_id = ?`),
		assessmentID,
	).Scan(&a.AssessmentID, &modelID, &a.CompletedAt, &scanner)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("security assessment %s: %w", assessmentID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security assessment: %w", err)
	}
	a.ModelID = modelID.String
	a.Scanner = scanner.String
	return &a, nil
}

// InsertSecurityAssessment persists a security assessment row.
func (s *dbStore) InsertSecurityAssessment(ctx context.Context, a *core.SecurityAssessment) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO security_assessments (assessment_id, model_id, completed_at, scanner) VALUES (?, ?, ?, ?)`),
		a.AssessmentID, a.ModelID, a.CompletedAt, a.Scanner,
	)
	if err != nil {
		return fmt.Errorf("failed to insert security assessment: %w", err)
	}
	return nil
}

// --- Audit log operations ---

// InsertAuditEntry appends one entry to the audit log.
func (s *dbStore) InsertAuditEntry(ctx context.Context, e *core.AuditEntry) error {
	if s.db == nil {
		return errNotOpened
	}

	_, err := s.db.ExecContext(ctx, s.rebind(insertAuditSQL),
		e.ID, e.EventType, e.ModelID, e.CanDeploy, e.ChecksRun, e.FailureCount, e.FullReport, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// BulkInsertAuditEntries appends a batch of audit entries in one transaction.
func (s *dbStore) BulkInsertAuditEntries(ctx context.Context, entries []*core.AuditEntry) error {
	if s.db == nil {
		return errNotOpened
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertAuditSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.EventType, e.ModelID, e.CanDeploy, e.ChecksRun, e.FailureCount, e.FullReport, e.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert audit entry %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// ListAuditEntries returns a model's audit entries, newest first.
// A limit of zero or less means no limit.
func (s *dbStore) ListAuditEntries(ctx context.Context, modelID string, limit int) ([]*core.AuditEntry, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	query := `SELECT id, event_type, model_id, can_deploy, checks_run, failure_count, full_report, created_at
		 FROM audit_log WHERE model_id = ? ORDER BY created_at DESC`
	args := []any{modelID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.ModelID, &e.CanDeploy, &e.ChecksRun, &e.FailureCount, &e.FullReport, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// --- Model registry rows ---

// UpsertModelMetadata stores the compliance metadata document for a model.
func (s *dbStore) UpsertModelMetadata(ctx context.Context, md *core.ModelMetadata) error {
	if s.db == nil {
		return errNotOpened
	}

	encoded, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode model metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO models (model_id, metadata, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (model_id) DO UPDATE SET metadata = excluded.metadata, updated_at = excluded.updated_at`),
		md.ModelID, string(encoded), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert model metadata: %w", err)
	}
	return nil
}

// GetModelMetadata retrieves the stored metadata document for a model.
func (s *dbStore) GetModelMetadata(ctx context.Context, modelID string) (*core.ModelMetadata, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	var encoded string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT metadata FROM models WHERE model_id = ?`), modelID,
	).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("model %s: %w", modelID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model metadata: %w", err)
	}

	var md core.ModelMetadata
	if err := json.Unmarshal([]byte(encoded), &md); err != nil {
		return nil, fmt.Errorf("decode model metadata: %w", err)
	}
	return &md, nil
}
