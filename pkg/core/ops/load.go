package ops

import (
	"context"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
)

// LoadIndex scans the milestone table and builds the override index. The
// override join is an enrichment, not a hard dependency, so scan failures
// log a warning and yield an empty index instead of aborting the report.
func LoadIndex(ctx context.Context, client dynamodb.ScanAPIClient, table string) *Index {
	if strings.TrimSpace(table) == "" {
		return NewIndex()
	}
	items, err := ingest.ScanAll(ctx, client, &dynamodb.ScanInput{TableName: aws.String(table)})
	if err != nil {
		log.Printf("Warning: unable to load ops milestones from %s: %v", table, err)
		return NewIndex()
	}
	native := make([]map[string]any, len(items))
	for i, item := range items {
		native[i] = ingest.ItemToNative(item)
	}
	return BuildIndex(native)
}
