package testutil

import (
	"context"
	"sort"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// FakeStore is an in-memory core.Store for tests. Set Err to make every
// operation fail with that error.
type FakeStore struct {
	Lineage             map[string]*core.LineageRecord
	Links               map[string]*core.LinkRecord
	RiskAssessments     map[string]*core.RiskAssessment
	SecurityAssessments map[string]*core.SecurityAssessment
	Models              map[string]*core.ModelMetadata
	Audit               []*core.AuditEntry

	Err error
}

// NewFakeStore returns an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Lineage:             make(map[string]*core.LineageRecord),
		Links:               make(map[string]*core.LinkRecord),
		RiskAssessments:     make(map[string]*core.RiskAssessment),
		SecurityAssessments: make(map[string]*core.SecurityAssessment),
		Models:              make(map[string]*core.ModelMetadata),
	}
}

var _ core.Store = (*FakeStore)(nil)

func (s *FakeStore) Open(string) error { return s.Err }
func (s *FakeStore) Close() error      { return s.Err }

func (s *FakeStore) InsertLineage(_ context.Context, rec *core.LineageRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.Lineage[rec.DatasetID] = rec
	return nil
}

func (s *FakeStore) UpdateLineage(_ context.Context, datasetID string, pipeline []core.Step, contentHash string) error {
	if s.Err != nil {
		return s.Err
	}
	rec, ok := s.Lineage[datasetID]
	if !ok {
		return core.ErrNotFound
	}
	rec.Pipeline = pipeline
	rec.ContentHash = contentHash
	return nil
}

func (s *FakeStore) GetLineage(_ context.Context, datasetID string) (*core.LineageRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	rec, ok := s.Lineage[datasetID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return rec, nil
}

func (s *FakeStore) InsertLink(_ context.Context, link *core.LinkRecord) error {
	if s.Err != nil {
		return s.Err
	}
	s.Links[link.DatasetID] = link
	return nil
}

func (s *FakeStore) GetLink(_ context.Context, datasetID string) (*core.LinkRecord, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	link, ok := s.Links[datasetID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return link, nil
}

func (s *FakeStore) GetRiskAssessment(_ context.Context, modelID string) (*core.RiskAssessment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.RiskAssessments[modelID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (s *FakeStore) InsertRiskAssessment(_ context.Context, a *core.RiskAssessment) error {
	if s.Err != nil {
		return s.Err
	}
	s.RiskAssessments[a.ModelID] = a
	return nil
}

func (s *FakeStore) GetSecurityAssessment(_ context.Context, assessmentID string) (*core.SecurityAssessment, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.SecurityAssessments[assessmentID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return a, nil
}

func (s *FakeStore) InsertSecurityAssessment(_ context.Context, a *core.SecurityAssessment) error {
	if s.Err != nil {
		return s.Err
	}
	s.SecurityAssessments[a.AssessmentID] = a
	return nil
}

func (s *FakeStore) InsertAuditEntry(_ context.Context, e *core.AuditEntry) error {
	if s.Err != nil {
		return s.Err
	}
	s.Audit = append(s.Audit, e)
	return nil
}

func (s *FakeStore) BulkInsertAuditEntries(_ context.Context, entries []*core.AuditEntry) error {
	if s.Err != nil {
		return s.Err
	}
	s.Audit = append(s.Audit, entries...)
	return nil
}

func (s *FakeStore) ListAuditEntries(_ context.Context, modelID string, limit int) ([]*core.AuditEntry, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*core.AuditEntry
	for _, e := range s.Audit {
		if modelID == "" || e.ModelID == modelID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *FakeStore) GetModelMetadata(_ context.Context, modelID string) (*core.ModelMetadata, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	md, ok := s.Models[modelID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return md, nil
}

func (s *FakeStore) UpsertModelMetadata(_ context.Context, md *core.ModelMetadata) error {
	if s.Err != nil {
		return s.Err
	}
	s.Models[md.ModelID] = md
	return nil
}
