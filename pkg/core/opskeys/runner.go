package opskeys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
)

// TableAPI is the slice of the DynamoDB client the runner needs.
type TableAPI interface {
	dynamodb.ScanAPIClient
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Runner scans the milestone table and rewrites non-canonical keys. Without
// Apply it only reports what it would change. Each applied rewrite is a
// conditional put of the new key followed by a conditional delete of the old
// one, with the original item appended to a JSONL backup first.
type Runner struct {
	Client    TableAPI
	Table     string
	Apply     bool
	BackupDir string
	PageLimit int
	Out       io.Writer
}

// Run executes the pass and returns (scanned, prepared) counts. Prepared
// counts planned rewrites in dry-run mode and attempted rewrites in apply
// mode.
func (r *Runner) Run(ctx context.Context) (int, int, error) {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	mode := "DRY"
	if r.Apply {
		mode = "APPLY"
	}

	var backup *backupWriter
	if r.Apply && r.BackupDir != "" {
		var err error
		backup, err = newBackupWriter(r.BackupDir, r.Table)
		if err != nil {
			return 0, 0, err
		}
		defer backup.Close()
	}

	scanned, prepared := 0, 0
	paginator := dynamodb.NewScanPaginator(r.Client, &dynamodb.ScanInput{
		TableName: aws.String(r.Table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return scanned, prepared, fmt.Errorf("scanning %s: %w", r.Table, err)
		}
		for _, av := range page.Items {
			scanned++
			rw, ok := PlanItem(ingest.ItemToNative(av))
			if ok {
				fmt.Fprintf(out, "[%s] %s#%s -> %s#%s\n",
					mode, rw.Change.PKOld, rw.Change.SKOld, rw.Change.PKNew, rw.Change.SKNew)
				prepared++
				if r.Apply {
					r.applyRewrite(ctx, rw, backup, out)
				}
			}
			if r.PageLimit > 0 && scanned >= r.PageLimit {
				return scanned, prepared, nil
			}
		}
	}
	return scanned, prepared, nil
}

// applyRewrite moves one item to its canonical key. The old key is deleted
// only after the canonical key is known to exist, so a failure can never
// lose the item.
func (r *Runner) applyRewrite(ctx context.Context, rw *Rewrite, backup *backupWriter, out io.Writer) {
	if backup != nil {
		if err := backup.Write(rw); err != nil {
			fmt.Fprintf(out, "  ! backup failed for %s#%s: %v\n", rw.Change.PKOld, rw.Change.SKOld, err)
			return
		}
	}

	item, err := attributevalue.MarshalMap(ingest.Sanitize(rw.Item))
	if err != nil {
		fmt.Fprintf(out, "  ! marshal failed for %s#%s: %v\n", rw.Change.PKNew, rw.Change.SKNew, err)
		return
	}
	_, err = r.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.Table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			fmt.Fprintf(out, "  ! put_item skipped for %s#%s: canonical key already present\n",
				rw.Change.PKNew, rw.Change.SKNew)
		} else {
			fmt.Fprintf(out, "  ! put_item failed for %s#%s: %v\n", rw.Change.PKNew, rw.Change.SKNew, err)
			return
		}
	}

	_, err = r.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.Table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: rw.Change.PKOld},
			"sk": &types.AttributeValueMemberS{Value: rw.Change.SKOld},
		},
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		fmt.Fprintf(out, "  ! delete_item failed for %s#%s: %v\n", rw.Change.PKOld, rw.Change.SKOld, err)
	}
}

type backupWriter struct {
	f *os.File
}

func newBackupWriter(dir, table string) (*backupWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s.jsonl", table, time.Now().UTC().Format("20060102T150405Z"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening backup file: %w", err)
	}
	return &backupWriter{f: f}, nil
}

// Write appends one snapshot line with the original item and the planned
// change.
func (b *backupWriter) Write(rw *Rewrite) error {
	snapshot := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"original":  rw.Original,
		"change":    rw.Change,
	}
	line, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	line = append(line, '\n')
	_, err = b.f.Write(line)
	return err
}

func (b *backupWriter) Close() error {
	return b.f.Close()
}
