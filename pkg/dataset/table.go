// Package dataset provides the logical tabular dataset type used by lineage
// tracking, together with its canonical content hashing and quality metrics.
//
// The hash is a function of logical content only: it is invariant to column
// ordering and to the in-memory representation, so the same logical table
// produces the same digest on any platform.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Row is one record of a table, keyed by column name.
type Row map[string]any

// Table is an ordered collection of rows. Row order is significant for
// hashing (it is part of the logical content); column order is not, because
// rows are keyed maps.
type Table struct {
	rows []Row
}

// New creates a table from rows. The rows slice is used as-is.
func New(rows []Row) *Table {
	return &Table{rows: rows}
}

// FromColumns creates a table from column-ordered data: a list of column
// names and row-major values. Tables built from the same logical data with
// different column orderings hash identically.
func FromColumns(columns []string, values [][]any) (*Table, error) {
	rows := make([]Row, 0, len(values))
	for i, vals := range values {
		if len(vals) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(vals), len(columns))
		}
		row := make(Row, len(columns))
		for j, col := range columns {
			row[col] = vals[j]
		}
		rows = append(rows, row)
	}
	return &Table{rows: rows}, nil
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Columns returns the union of column names across all rows, sorted.
func (t *Table) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range t.rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// ColumnCount returns the number of distinct columns.
func (t *Table) ColumnCount() int { return len(t.Columns()) }

// Schema returns column name -> Go type name for the first non-nil value
// observed in each column. Columns with only nil values map to "null".
func (t *Table) Schema() map[string]string {
	schema := make(map[string]string)
	for _, col := range t.Columns() {
		schema[col] = "null"
		for _, row := range t.rows {
			if v, ok := row[col]; ok && v != nil {
				schema[col] = fmt.Sprintf("%T", v)
				break
			}
		}
	}
	return schema
}

// Column returns the values of one column in row order. Missing cells are nil.
func (t *Table) Column(name string) []any {
	vals := make([]any, len(t.rows))
	for i, row := range t.rows {
		vals[i] = row[name]
	}
	return vals
}

// Rows returns the underlying rows. Callers must not mutate them.
func (t *Table) Rows() []Row { return t.rows }

// Hash computes the canonical content hash: SHA-256 over the row-major,
// key-sorted JSON serialization, hex encoded. This is the load-bearing
// determinism property for lineage integrity.
func (t *Table) Hash() (string, error) {
	canonical, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON serializes the table as a JSON array of objects with keys in
// sorted order. encoding/json sorts map keys, which gives the key ordering
// guarantee; HTML escaping is disabled so digests are stable across encoders.
func (t *Table) CanonicalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = []Row{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("canonicalize table: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// rowKey returns the canonical serialization of a single row, used for
// duplicate detection.
func rowKey(row Row) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(row); err != nil {
		return "", err
	}
	return buf.String(), nil
}
