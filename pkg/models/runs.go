package models

import (
	"time"
)

// RunRecord is one report generation run, persisted for audit history.
type RunRecord struct {
	ID           string      `json:"id"`
	GeneratedAt  time.Time   `json:"generated_at"`
	OutputPath   string      `json:"output_path"`
	TableRows    int         `json:"table_rows"`
	SummaryRows  int         `json:"summary_rows"`
	OpsMatches   int         `json:"ops_matches"`
	StatusCounts map[int]int `json:"status_counts"`
}

// CountStatuses tallies rows per StatusNumeric for the history record.
func CountStatuses(statuses []int) map[int]int {
	counts := make(map[int]int)
	for _, status := range statuses {
		counts[status]++
	}
	return counts
}
