package polaris

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// Date fields tried in order when deriving the record sort key.
var sortKeyDateFields = []string{
	"Buyer Contract: COE Date",
	"Buyer Contract: Projected Closing Date",
	"Buyer Contract: Week Ratified Date",
	"Buyer Contract: Contract Sent Date",
}

var statusSlugRe = regexp.MustCompile(`[^0-9A-Za-z]+`)

// FinalizeRecords converts normalized rows into storage-ready records:
// dates rendered as RFC 3339 text, a composite pk of "<project>#<unit>"
// (falling back to "UNKNOWN#row<n>"), a date-or-status sk, plus RowIndex and
// ExtractedAt bookkeeping.
func FinalizeRecords(tbl *dataset.Table, extractedAt time.Time) []dataset.Record {
	extraction := extractedAt.UTC().Format(time.RFC3339)
	records := make([]dataset.Record, 0, len(tbl.Rows))
	for idx, row := range tbl.Rows {
		record := make(dataset.Record, len(tbl.Columns)+4)
		for _, col := range tbl.Columns {
			if ts, ok := row[col].(time.Time); ok {
				record[col] = ts.Format(time.RFC3339)
				continue
			}
			record[col] = row[col]
		}
		record["RowIndex"] = idx
		record["ExtractedAt"] = extraction

		projectName := dataset.CellString(record, "AltProjectName")
		if projectName == "" {
			projectName = dataset.CellString(record, "Project Name")
		}
		unit := firstNonEmpty(record, "Contract Unit Number", "Unit Number", "Lot Number")

		var pkParts []string
		if projectName != "" {
			pkParts = append(pkParts, projectName)
		}
		if unit != "" {
			pkParts = append(pkParts, unit)
		}
		if len(pkParts) == 0 {
			pkParts = []string{"UNKNOWN", fmt.Sprintf("row%d", idx)}
		}
		record["pk"] = strings.Join(pkParts, "#")
		record["sk"] = sortKey(record)
		records = append(records, record)
	}
	return records
}

// sortKey prefers the first populated contract date, then a slugged status
// label, then the numeric status rank.
func sortKey(record dataset.Record) string {
	for _, field := range sortKeyDateFields {
		if s := dataset.CellString(record, field); s != "" {
			return s
		}
	}
	if status, ok := record["Status"].(string); ok {
		slug := statusSlugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(status)), "-")
		slug = strings.Trim(slug, "-")
		if slug != "" {
			return "status#" + slug
		}
	}
	if n, ok := dataset.ParseNumber(record["StatusNumeric"]); ok {
		return fmt.Sprintf("status#%02d", int(n))
	}
	return "status#unknown"
}

func firstNonEmpty(rec dataset.Record, cols ...string) string {
	for _, col := range cols {
		if s := dataset.CellString(rec, col); s != "" {
			return s
		}
	}
	return ""
}
