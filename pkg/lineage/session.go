package lineage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/dataset"
)

// Sequencing errors. These surface misuse immediately; the session never
// partially mutates state before failing.
var (
	// ErrNotStarted is returned when a transformation or link is recorded
	// before Begin.
	ErrNotStarted = errors.New("lineage: no active extraction; call Begin first")
	// ErrAlreadyStarted is returned when Begin is called twice on one session.
	ErrAlreadyStarted = errors.New("lineage: session already started")
	// ErrSealed is returned when a session is mutated after LinkToModel.
	ErrSealed = errors.New("lineage: record is linked to a model and sealed")
)

// Session builds one lineage record incrementally as a pipeline executes.
// Each session tracks exactly one dataset; run concurrent pipelines with one
// session each. A Session is not safe for concurrent use.
//
// A failed persist leaves the in-memory record ahead of the store; the
// caller must reconcile (the session has no partial-failure tolerance for
// its own persistence).
type Session struct {
	store core.Store

	rec    *core.LineageRecord
	sealed bool

	labelColumn string
	now         func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLabelColumn designates the label column for class-balance metrics
// computed at extraction.
func WithLabelColumn(name string) Option {
	return func(s *Session) { s.labelColumn = name }
}

// WithClock overrides the session's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a session backed by the given store.
func NewSession(store core.Store, opts ...Option) *Session {
	s := &Session{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin records the extraction of data from a source system and starts the
// provenance chain. It computes the canonical content hash, captures quality
// metrics, persists the new record, and returns the assigned dataset id.
func (s *Session) Begin(ctx context.Context, source, query string, data *dataset.Table) (string, error) {
	if s.rec != nil {
		return "", ErrAlreadyStarted
	}

	hash, err := data.Hash()
	if err != nil {
		return "", fmt.Errorf("hash extracted data: %w", err)
	}

	started := s.now().UTC()
	datasetID := newDatasetID(started)

	rec := &core.LineageRecord{
		DatasetID:           datasetID,
		SourceSystems:       []string{source},
		ExtractionTimestamp: started,
		Pipeline: []core.Step{{
			Name:        "extraction",
			Source:      source,
			Query:       query,
			Timestamp:   started,
			InputHash:   "", // No predecessor.
			OutputHash:  hash,
			RowCount:    data.RowCount(),
			ColumnCount: data.ColumnCount(),
			Schema:      data.Schema(),
		}},
		QualityMetrics: dataset.QualityMetrics(data, s.labelColumn, started),
		ContentHash:    hash,
	}

	if err := s.store.InsertLineage(ctx, rec); err != nil {
		return "", fmt.Errorf("persist lineage record: %w", err)
	}

	s.rec = rec
	return datasetID, nil
}

// RecordTransformation appends a hash-linked transformation step and
// persists the updated pipeline. The descriptor names the code or
// configuration that performed the transformation.
func (s *Session) RecordTransformation(ctx context.Context, stepName string, input, output *dataset.Table, descriptor string) error {
	if s.rec == nil {
		return ErrNotStarted
	}
	if s.sealed {
		return ErrSealed
	}

	inputHash, err := input.Hash()
	if err != nil {
		return fmt.Errorf("hash input data: %w", err)
	}
	outputHash, err := output.Hash()
	if err != nil {
		return fmt.Errorf("hash output data: %w", err)
	}

	step := core.Step{
		Name:           stepName,
		Descriptor:     descriptor,
		Timestamp:      s.now().UTC(),
		InputHash:      inputHash,
		OutputHash:     outputHash,
		RowCountBefore: input.RowCount(),
		RowCountAfter:  output.RowCount(),
		RowsRemoved:    input.RowCount() - output.RowCount(),
		ColumnsAdded:   columnDiff(output, input),
		ColumnsRemoved: columnDiff(input, output),
	}

	pipeline := append(s.rec.Pipeline, step)
	if err := s.store.UpdateLineage(ctx, s.rec.DatasetID, pipeline, outputHash); err != nil {
		return fmt.Errorf("persist transformation step: %w", err)
	}

	s.rec.Pipeline = pipeline
	s.rec.ContentHash = outputHash
	return nil
}

// LinkToModel creates the immutable link between this dataset and a trained
// model, capturing the dataset hash at link time. Linking seals the session:
// further transformations are rejected with ErrSealed.
func (s *Session) LinkToModel(ctx context.Context, modelID string) (*core.LinkRecord, error) {
	if s.rec == nil {
		return nil, ErrNotStarted
	}
	if s.sealed {
		return nil, ErrSealed
	}

	link := &core.LinkRecord{
		DatasetID:   s.rec.DatasetID,
		ModelID:     modelID,
		LinkedAt:    s.now().UTC(),
		DatasetHash: s.rec.ContentHash,
	}

	if err := s.store.InsertLink(ctx, link); err != nil {
		return nil, fmt.Errorf("persist model link: %w", err)
	}

	s.sealed = true
	return link, nil
}

// Record returns the in-memory lineage record built so far, or nil before
// Begin. Callers must not mutate it.
func (s *Session) Record() *core.LineageRecord { return s.rec }

// DatasetID returns the dataset id assigned at Begin, or empty.
func (s *Session) DatasetID() string {
	if s.rec == nil {
		return ""
	}
	return s.rec.DatasetID
}

func newDatasetID(t time.Time) string {
	return fmt.Sprintf("dataset_%s_%s", t.Format("20060102T150405"), uuid.NewString()[:8])
}

// columnDiff returns columns present in a but not in b, sorted.
func columnDiff(a, b *dataset.Table) []string {
	have := make(map[string]struct{})
	for _, col := range b.Columns() {
		have[col] = struct{}{}
	}
	var diff []string
	for _, col := range a.Columns() {
		if _, ok := have[col]; !ok {
			diff = append(diff, col)
		}
	}
	return diff
}
