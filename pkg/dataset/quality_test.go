package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metricsNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestQualityMetrics_Completeness(t *testing.T) {
	tbl := New([]Row{
		{"a": 1, "b": "x"},
		{"a": nil, "b": "y"},
	})

	m := QualityMetrics(tbl, "", metricsNow)
	assert.InDelta(t, 0.75, m["completeness"], 1e-9)
	assert.Equal(t, 2, m["row_count"])
	assert.Equal(t, 2, m["column_count"])
	assert.Equal(t, "2026-03-01T12:00:00Z", m["computed_at"])
}

func TestQualityMetrics_EmptyTableIsComplete(t *testing.T) {
	m := QualityMetrics(New(nil), "", metricsNow)
	assert.Equal(t, 1.0, m["completeness"])
	assert.Equal(t, 0, m["duplicate_rows"])
}

func TestQualityMetrics_DuplicateRows(t *testing.T) {
	tbl := New([]Row{
		{"id": 1},
		{"id": 1},
		{"id": 2},
		{"id": 1},
	})
	m := QualityMetrics(tbl, "", metricsNow)
	assert.Equal(t, 2, m["duplicate_rows"])
}

func TestQualityMetrics_ClassBalance(t *testing.T) {
	tbl := New([]Row{
		{"label": "approve"},
		{"label": "approve"},
		{"label": "approve"},
		{"label": "deny"},
	})

	m := QualityMetrics(tbl, "label", metricsNow)
	dist, ok := m["class_balance"].(map[string]float64)
	require.True(t, ok)
	assert.InDelta(t, 0.75, dist["approve"], 1e-9)
	assert.InDelta(t, 0.25, dist["deny"], 1e-9)
	assert.Equal(t, "pass", m["representativeness_flag"])
}

func TestQualityMetrics_MinorityClassWarning(t *testing.T) {
	rows := make([]Row, 0, 100)
	for i := 0; i < 98; i++ {
		rows = append(rows, Row{"label": "majority"})
	}
	rows = append(rows, Row{"label": "minority"}, Row{"label": "minority"})

	m := QualityMetrics(New(rows), "label", metricsNow)
	assert.Equal(t, "warning", m["representativeness_flag"])
}

func TestQualityMetrics_MissingLabelColumn(t *testing.T) {
	tbl := New([]Row{{"a": 1}})
	m := QualityMetrics(tbl, "label", metricsNow)
	assert.NotContains(t, m, "class_balance")
	assert.NotContains(t, m, "representativeness_flag")
}
