// Package registry provides model metadata lookup for the compliance gate.
// Two implementations exist: StoreRegistry reads metadata rows persisted in
// the governance store, StaticRegistry serves a fixed in-memory set and is
// the natural choice for seeding and tests.
package registry

import (
	"context"
	"sync"

	"github.com/leapstack-labs/provgate/pkg/core"
)

// MetadataStore is the slice of the state store the registry needs.
type MetadataStore interface {
	GetModelMetadata(ctx context.Context, modelID string) (*core.ModelMetadata, error)
	UpsertModelMetadata(ctx context.Context, md *core.ModelMetadata) error
}

// StoreRegistry resolves model metadata from the governance database.
type StoreRegistry struct {
	store MetadataStore
}

// NewStoreRegistry wraps a metadata store as a core.ModelRegistry.
func NewStoreRegistry(store MetadataStore) *StoreRegistry {
	return &StoreRegistry{store: store}
}

// GetComplianceReport returns the persisted metadata for a model, or
// core.ErrNotFound when the model was never registered.
func (r *StoreRegistry) GetComplianceReport(ctx context.Context, modelID string) (*core.ModelMetadata, error) {
	return r.store.GetModelMetadata(ctx, modelID)
}

// Register persists (or replaces) the metadata for a model.
func (r *StoreRegistry) Register(ctx context.Context, md *core.ModelMetadata) error {
	return r.store.UpsertModelMetadata(ctx, md)
}

// StaticRegistry holds model metadata in memory.
type StaticRegistry struct {
	mu     sync.RWMutex
	models map[string]*core.ModelMetadata
}

// NewStaticRegistry creates an empty in-memory registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{models: make(map[string]*core.ModelMetadata)}
}

// Register adds metadata under its model ID. Re-registering replaces the
// previous entry.
func (r *StaticRegistry) Register(md *core.ModelMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[md.ModelID] = md
}

// GetComplianceReport returns the registered metadata for a model, or
// core.ErrNotFound if the model is unknown.
func (r *StaticRegistry) GetComplianceReport(_ context.Context, modelID string) (*core.ModelMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.models[modelID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return md, nil
}

// Count returns the number of registered models.
func (r *StaticRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
