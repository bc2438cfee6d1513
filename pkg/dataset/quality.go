package dataset

import (
	"fmt"
	"time"
)

// MinorityClassThreshold is the minimum class ratio below which the
// representativeness flag degrades from "pass" to "warning".
const MinorityClassThreshold = 0.05

// QualityMetrics computes the data quality metrics captured once at
// extraction: completeness, duplicate rows, and, when labelColumn names an
// existing column, class balance with a representativeness flag.
func QualityMetrics(t *Table, labelColumn string, now time.Time) map[string]any {
	rowCount := t.RowCount()
	colCount := t.ColumnCount()

	metrics := map[string]any{
		"completeness":   completeness(t, rowCount, colCount),
		"row_count":      rowCount,
		"column_count":   colCount,
		"duplicate_rows": duplicateRows(t),
		"computed_at":    now.UTC().Format(time.RFC3339),
	}

	if labelColumn != "" && hasColumn(t, labelColumn) {
		dist := classBalance(t, labelColumn)
		metrics["class_balance"] = dist

		flag := "pass"
		if minRatio(dist) < MinorityClassThreshold {
			flag = "warning"
		}
		metrics["representativeness_flag"] = flag
	}

	return metrics
}

// completeness is 1 - (null cells / total cells). An empty table is
// trivially complete.
func completeness(t *Table, rowCount, colCount int) float64 {
	total := rowCount * colCount
	if total == 0 {
		return 1.0
	}
	nulls := 0
	cols := t.Columns()
	for _, row := range t.Rows() {
		for _, col := range cols {
			if v, ok := row[col]; !ok || v == nil {
				nulls++
			}
		}
	}
	return 1.0 - float64(nulls)/float64(total)
}

// duplicateRows counts rows whose canonical serialization was already seen.
func duplicateRows(t *Table) int {
	seen := make(map[string]struct{}, t.RowCount())
	dups := 0
	for _, row := range t.Rows() {
		key, err := rowKey(row)
		if err != nil {
			continue
		}
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func hasColumn(t *Table, name string) bool {
	for _, col := range t.Columns() {
		if col == name {
			return true
		}
	}
	return false
}

// classBalance returns the normalized distribution of label values.
func classBalance(t *Table, labelColumn string) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, v := range t.Column(labelColumn) {
		if v == nil {
			continue
		}
		counts[fmt.Sprintf("%v", v)]++
		total++
	}
	dist := make(map[string]float64, len(counts))
	for class, n := range counts {
		dist[class] = float64(n) / float64(total)
	}
	return dist
}

func minRatio(dist map[string]float64) float64 {
	min := 1.0
	for _, r := range dist {
		if r < min {
			min = r
		}
	}
	return min
}
