package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store and ModelRegistry lookups when no row
// exists for the given key. Rule evaluators translate it into a clean
// check failure rather than an evaluation error.
var ErrNotFound = errors.New("not found")

// Store is the governance persistence collaborator. The core never embeds
// SQL; it talks to storage only through this interface. Each call is assumed
// atomic and durable once it returns nil.
//
// Tables covered: data_lineage, model_data_lineage, risk_assessments,
// security_assessments, audit_log.
type Store interface {
	Open(path string) error
	Close() error

	// Lineage operations
	InsertLineage(ctx context.Context, rec *LineageRecord) error
	UpdateLineage(ctx context.Context, datasetID string, pipeline []Step, contentHash string) error
	GetLineage(ctx context.Context, datasetID string) (*LineageRecord, error)
	InsertLink(ctx context.Context, link *LinkRecord) error
	GetLink(ctx context.Context, datasetID string) (*LinkRecord, error)

	// Assessment queries
	GetRiskAssessment(ctx context.Context, modelID string) (*RiskAssessment, error)
	InsertRiskAssessment(ctx context.Context, a *RiskAssessment) error
	GetSecurityAssessment(ctx context.Context, assessmentID string) (*SecurityAssessment, error)
	InsertSecurityAssessment(ctx context.Context, a *SecurityAssessment) error

	// Audit log
	InsertAuditEntry(ctx context.Context, e *AuditEntry) error
	BulkInsertAuditEntries(ctx context.Context, entries []*AuditEntry) error
	ListAuditEntries(ctx context.Context, modelID string, limit int) ([]*AuditEntry, error)
}

// ModelRegistry is the model metadata collaborator consumed by the gate.
type ModelRegistry interface {
	// GetComplianceReport returns the compliance-relevant metadata for a
	// model, or ErrNotFound if the model is unknown.
	GetComplianceReport(ctx context.Context, modelID string) (*ModelMetadata, error)
}
