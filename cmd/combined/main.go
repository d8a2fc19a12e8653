package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/hso"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/polaris"
)

// Bookkeeping fields appended after the canonical columns in CSV output.
var recordFields = []string{"RowIndex", "ExtractedAt", "pk", "sk"}

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	godotenv.Load()

	var projects, extraColumns stringList
	polarisPath := flag.String("polaris", "", "Optional Polaris Excel export (.xlsx path or s3:// URI) to merge in")
	sheetName := flag.String("sheet-name", polaris.DefaultSheetName, "Worksheet name when reading a Polaris export")
	skipRows := flag.Int("skiprows", polaris.DefaultSkipRows, "Header rows to skip in the Polaris export")
	hsoTable := flag.String("hso-table", hso.DefaultTableName(), "DynamoDB table containing sales-offers data")
	hsoRegion := flag.String("hso-region", hso.DefaultRegion(), "AWS region for the sales-offers table")
	flag.Var(&projects, "project", "Optional project_id filter; repeat to include multiple projects")
	flag.Var(&extraColumns, "include-column", "Additional column to retain in the final dataset; repeatable")
	output := flag.String("output", "", "Optional output path; records print to stdout as JSON when omitted")
	format := flag.String("format", "", "Output format, json or csv (inferred from the output extension)")
	writeTable := flag.String("write-table", "", "Optional DynamoDB table to write the finalized records to")
	flag.Parse()

	ctx := context.Background()
	columns := hso.MergeColumns(polaris.DefaultColumns, extraColumns)

	awsCfg, err := ingest.NewAWSConfig(ctx, *hsoRegion, "")
	if err != nil {
		log.Fatalf("Error: unable to load AWS config: %v", err)
	}
	ddb := dynamodb.NewFromConfig(awsCfg)

	var sheetTable *dataset.Table
	if *polarisPath != "" {
		localPath := *polarisPath
		if ingest.IsS3URI(localPath) {
			fetched, cleanup, err := ingest.FetchExport(ctx, s3.NewFromConfig(awsCfg), localPath)
			if err != nil {
				log.Fatalf("Error: %v", err)
			}
			defer cleanup()
			localPath = fetched
		}
		raw, err := ingest.LoadSheet(localPath, *sheetName, *skipRows)
		if err != nil {
			log.Fatalf("Error: unable to read %s: %v", *polarisPath, err)
		}
		sheetTable = polaris.ProcessTable(raw, columns)
		log.Printf("Loaded %d Polaris rows from %s", len(sheetTable.Rows), *polarisPath)
	}

	kvTable, err := hso.LoadTable(ctx, ddb, *hsoTable, columns, projects)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	log.Printf("Loaded %d sales-offer rows from %s", len(kvTable.Rows), *hsoTable)

	combined := hso.CombineSources(sheetTable, kvTable, columns)
	records := polaris.FinalizeRecords(combined, time.Now().UTC())

	if *output == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			log.Fatalf("Error: unable to encode records: %v", err)
		}
	} else {
		name, err := resolveFormat(*format, *output)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		if err := writeOutput(records, combined.Columns, *output, name); err != nil {
			log.Fatalf("Error: %v", err)
		}
		log.Printf("Wrote %d records to %s", len(records), *output)
	}

	if *writeTable != "" {
		written, err := ingest.WriteRecords(ctx, ddb, *writeTable, records)
		if err != nil {
			log.Fatalf("Error: failed to write %s: %v", *writeTable, err)
		}
		log.Printf("Wrote %d records to DynamoDB table %s", written, *writeTable)
	}
}

// resolveFormat falls back to the output extension when --format is omitted.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			format = "json"
		case ".csv":
			format = "csv"
		default:
			return "", fmt.Errorf("cannot infer output format from %s; pass --format", output)
		}
	}
	switch format {
	case "json", "csv":
		return format, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected json or csv)", format)
}

func writeOutput(records []dataset.Record, columns []string, path, format string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	switch format {
	case "json":
		raw, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding records: %w", err)
		}
		return os.WriteFile(path, append(raw, '\n'), 0o644)
	case "csv":
		return writeCSV(records, columns, path)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func writeCSV(records []dataset.Record, columns []string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	header := make([]string, 0, len(columns)+len(recordFields))
	header = append(header, columns...)
	header = append(header, recordFields...)

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, col := range header {
			row[i] = dataset.ValueString(rec[col])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
