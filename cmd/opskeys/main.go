package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/opskeys"
)

func main() {
	godotenv.Load()

	table := flag.String("table", "ops_milestones", "DynamoDB table holding the ops milestones")
	region := flag.String("region", "us-west-1", "AWS region for the milestones table")
	profile := flag.String("profile", "", "Optional AWS profile name for credentials")
	apply := flag.Bool("apply", false, "Apply the rewrites; without this flag the run is a dry run")
	backupDir := flag.String("backup-dir", "backups", "Directory for JSONL snapshots of rewritten items (apply mode only)")
	pageLimit := flag.Int("page-limit", 0, "Maximum number of items to scan, 0 for all")
	flag.Parse()

	ctx := context.Background()
	awsCfg, err := ingest.NewAWSConfig(ctx, *region, *profile)
	if err != nil {
		log.Fatalf("Error: unable to load AWS config: %v", err)
	}

	runner := &opskeys.Runner{
		Client:    dynamodb.NewFromConfig(awsCfg),
		Table:     *table,
		Apply:     *apply,
		BackupDir: *backupDir,
		PageLimit: *pageLimit,
	}
	scanned, prepared, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	mode := "DRY-RUN"
	if *apply {
		mode = "APPLY"
	}
	fmt.Printf("%s complete: scanned %d items, prepared %d rewrites\n", mode, scanned, prepared)
}
