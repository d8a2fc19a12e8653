package hso

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/polaris"
)

// MergeColumns appends caller extras to the base column list, skipping any
// already present.
func MergeColumns(base []string, extras []string) []string {
	merged := make([]string, len(base))
	copy(merged, base)
	for _, col := range extras {
		found := false
		for _, existing := range merged {
			if existing == col {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, col)
		}
	}
	return merged
}

// LoadTable scans the sales-offers table and returns normalized canonical
// rows. An optional project list becomes a project_id IN (...) scan filter.
// Excluded projects are dropped here, the same normalizer-level filter the
// spreadsheet source gets.
func LoadTable(ctx context.Context, client dynamodb.ScanAPIClient, tableName string, columnsToKeep []string, includeProjects []string) (*dataset.Table, error) {
	if columnsToKeep == nil {
		columnsToKeep = polaris.DefaultColumns
	}
	input := &dynamodb.ScanInput{TableName: aws.String(tableName)}

	var projects []string
	for _, p := range includeProjects {
		if p != "" {
			projects = append(projects, p)
		}
	}
	if len(projects) > 0 {
		operands := make([]expression.OperandBuilder, 0, len(projects)-1)
		for _, p := range projects[1:] {
			operands = append(operands, expression.Value(p))
		}
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("project_id").In(expression.Value(projects[0]), operands...)).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build project filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items, err := ingest.ScanAll(ctx, client, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", tableName, err)
	}

	tbl := dataset.NewTable(columnsToKeep...)
	for _, raw := range items {
		record := MapItem(ingest.ItemToNative(raw), columnsToKeep)
		project := dataset.CellString(record, "Project Name")
		if polaris.ExcludedProjects[strings.ToLower(project)] {
			continue
		}
		tbl.Append(record)
	}
	tbl.CoerceDates(polaris.DateColumns)

	for _, rec := range tbl.Rows {
		if rec["StatusNumeric"] == nil {
			if status := dataset.CellString(rec, "Status"); status != "" {
				rec["StatusNumeric"] = polaris.AssignStatusNumeric(status)
			}
		}
	}
	return tbl, nil
}

// MergeKey is the dedup identity: trimmed project name and contract unit
// number, string-coerced so numeric and textual unit numbers collide.
func MergeKey(rec dataset.Record) string {
	return dataset.CellString(rec, "Project Name") + "\x00" + dataset.CellString(rec, "Contract Unit Number")
}

// CombineSources concatenates spreadsheet rows first and sales-offers rows
// second, then deduplicates on MergeKey keeping the last occurrence. The
// result is restricted and reordered to columnsToKeep with date columns
// re-coerced.
func CombineSources(sheet, kv *dataset.Table, columnsToKeep []string) *dataset.Table {
	if columnsToKeep == nil {
		columnsToKeep = polaris.DefaultColumns
	}
	combined := dataset.NewTable(columnsToKeep...)
	if sheet != nil {
		combined = combined.Concat(sheet)
	}
	if kv != nil {
		combined = combined.Concat(kv)
	}

	for _, rec := range combined.Rows {
		rec["Project Name"] = dataset.CellString(rec, "Project Name")
		rec["Contract Unit Number"] = dataset.CellString(rec, "Contract Unit Number")
	}

	combined = combined.DedupLast(MergeKey)
	combined = combined.Project(columnsToKeep)
	combined.CoerceDates(polaris.DateColumns)
	return combined
}

// BuildPK derives the composite "<project>#<unit>" identity used by the
// report stage. Rows with neither part yield nil.
func BuildPK(rec dataset.Record) any {
	project := dataset.CellString(rec, "Project Name")
	unit := dataset.CellString(rec, "Contract Unit Number")
	pk := strings.Trim(project+"#"+unit, "#")
	if pk == "" {
		return nil
	}
	return pk
}
