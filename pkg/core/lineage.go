package core

import "time"

// =============================================================================
// Lineage Entities
// =============================================================================

// Step is one entry in a lineage record's transformation pipeline.
// Insertion order is execution order and is semantically significant.
type Step struct {
	Name       string    `json:"name"`
	Source     string    `json:"source,omitempty"`     // Extraction: source system
	Query      string    `json:"query,omitempty"`      // Extraction: query or method
	Descriptor string    `json:"descriptor,omitempty"` // Transformation: code/config that ran
	Timestamp  time.Time `json:"timestamp"`
	InputHash  string    `json:"input_hash"` // Empty for the extraction step
	OutputHash string    `json:"output_hash"`

	// Audit-readability metadata.
	RowCount       int               `json:"row_count,omitempty"`
	ColumnCount    int               `json:"column_count,omitempty"`
	Schema         map[string]string `json:"schema,omitempty"`
	RowCountBefore int               `json:"row_count_before,omitempty"`
	RowCountAfter  int               `json:"row_count_after,omitempty"`
	RowsRemoved    int               `json:"rows_removed,omitempty"`
	ColumnsAdded   []string          `json:"columns_added,omitempty"`
	ColumnsRemoved []string          `json:"columns_removed,omitempty"`
}

// LineageRecord is an append-only description of a dataset's provenance
// chain. It is created at extraction, mutated only by appending steps, and
// becomes terminal once linked to a model.
type LineageRecord struct {
	DatasetID           string         `json:"dataset_id"`
	SourceSystems       []string       `json:"source_systems"`
	ExtractionTimestamp time.Time      `json:"extraction_timestamp"`
	Pipeline            []Step         `json:"pipeline"`
	QualityMetrics      map[string]any `json:"quality_metrics"`
	ContentHash         string         `json:"content_hash"`
}

// LinkRecord is the immutable link between a dataset and a trained model.
// DatasetHash captures the dataset's content hash at link time, so later
// mutation of the lineage record is detectable.
type LinkRecord struct {
	DatasetID   string    `json:"dataset_id"`
	ModelID     string    `json:"model_id"`
	LinkedAt    time.Time `json:"linked_at"`
	DatasetHash string    `json:"dataset_hash"`
}
