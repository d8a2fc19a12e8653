package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// BatchWriter is the slice of the DynamoDB client used by WriteRecords.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

const batchWriteChunk = 25

// ScanAll drains a table with exhaustive pagination and returns the raw
// items. The engine needs the complete dataset before resolution starts, so
// a failed page aborts the whole scan.
func ScanAll(ctx context.Context, client dynamodb.ScanAPIClient, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// ItemToNative converts a raw DynamoDB item into a loosely-typed mapping.
// Numbers become decimal.Decimal so whole-versus-fractional coercion happens
// downstream, matching how the rest of the pipeline treats store numerics.
func ItemToNative(item map[string]types.AttributeValue) map[string]any {
	out := make(map[string]any, len(item))
	for k, av := range item {
		out[k] = AttributeToNative(av)
	}
	return out
}

// AttributeToNative converts one attribute value.
func AttributeToNative(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		d, err := decimal.NewFromString(v.Value)
		if err != nil {
			return v.Value
		}
		return d
	case *types.AttributeValueMemberBOOL:
		return v.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberM:
		return ItemToNative(v.Value)
	case *types.AttributeValueMemberL:
		out := make([]any, len(v.Value))
		for i, item := range v.Value {
			out[i] = AttributeToNative(item)
		}
		return out
	case *types.AttributeValueMemberSS:
		out := make([]any, len(v.Value))
		for i, s := range v.Value {
			out[i] = s
		}
		return out
	case *types.AttributeValueMemberNS:
		out := make([]any, len(v.Value))
		for i, n := range v.Value {
			if d, err := decimal.NewFromString(n); err == nil {
				out[i] = d
			} else {
				out[i] = n
			}
		}
		return out
	case *types.AttributeValueMemberB:
		return v.Value
	default:
		return nil
	}
}

// WriteRecords pushes finalized records into a table in batches. Records
// without a pk are skipped with a warning; a malformed row never aborts the
// batch. Returns the number of records written.
func WriteRecords(ctx context.Context, client BatchWriter, table string, records []dataset.Record) (int, error) {
	var requests []types.WriteRequest
	for _, rec := range records {
		if dataset.CellString(rec, "pk") == "" {
			log.Printf("Warning: skipping record without pk (RowIndex=%v)", rec["RowIndex"])
			continue
		}
		item, err := attributevalue.MarshalMap(Sanitize(rec))
		if err != nil {
			log.Printf("Warning: skipping unmarshalable record %v: %v", rec["pk"], err)
			continue
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	written := 0
	for start := 0; start < len(requests); start += batchWriteChunk {
		end := start + batchWriteChunk
		if end > len(requests) {
			end = len(requests)
		}
		batch := map[string][]types.WriteRequest{table: requests[start:end]}
		for len(batch[table]) > 0 {
			out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: batch,
			})
			if err != nil {
				return written, fmt.Errorf("batch write to %s failed: %w", table, err)
			}
			batch = out.UnprocessedItems
			if len(batch[table]) > 0 {
				time.Sleep(250 * time.Millisecond)
			}
		}
		written += end - start
	}
	return written, nil
}

// Sanitize renders times as RFC 3339 text and collapses decimals so a
// marshaled item carries plain strings and numbers.
func Sanitize(rec dataset.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		switch val := v.(type) {
		case time.Time:
			out[k] = val.UTC().Format(time.RFC3339)
		default:
			out[k] = dataset.ConvertDecimal(v)
		}
	}
	return out
}
