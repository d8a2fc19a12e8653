package main

import (
	"context"
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

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/charts"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/hso"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ingest"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ops"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/polaris"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/report"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/store"
	"github.com/fox-dr/hbfa-ops-erp/pkg/models"
)

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// firstSet returns the first non-empty value so flags override config which
// overrides the built-in default.
func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	godotenv.Load()

	var projects, extraColumns stringList
	polarisPath := flag.String("polaris", "", "Optional Polaris Excel export (.xlsx path or s3:// URI) to merge in")
	sheetName := flag.String("sheet-name", polaris.DefaultSheetName, "Worksheet name when reading a Polaris export")
	skipRows := flag.Int("skiprows", polaris.DefaultSkipRows, "Header rows to skip in the Polaris export")
	hsoTable := flag.String("hso-table", "", "Sales-offers table name (default: TARGET_TABLE or hbfa_sales_offers)")
	hsoRegion := flag.String("hso-region", "", "AWS region for the sales-offers table (default: AWS_REGION or us-east-2)")
	flag.Var(&projects, "project", "Optional project_id filter; repeat to include multiple projects")
	flag.Var(&extraColumns, "include-column", "Additional column to retain in the dataset; repeatable")
	opsTable := flag.String("ops-table", "", "Ops milestones table name (default: ops_milestones)")
	profile := flag.String("profile", "", "Optional AWS profile for DynamoDB access")
	output := flag.String("output", "", "Path to the PDF file that will be written (required)")
	logoPath := flag.String("logo", "", "Optional logo image (PNG/JPG) rendered in the header")
	title := flag.String("title", "", "Override the report title")
	subtitle := flag.String("subtitle", "", "Override the report subtitle; defaults to the generation timestamp")
	configPath := flag.String("config", "", "Optional YAML config file; flags override its values")
	history := flag.Bool("history", false, "Record this run in the report history database")
	flag.Parse()

	cfg, err := report.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	tableName := firstSet(*hsoTable, cfg.HSOTable, hso.DefaultTableName())
	region := firstSet(*hsoRegion, cfg.Region, hso.DefaultRegion())
	opsTableName := firstSet(*opsTable, cfg.OpsTable, "ops_milestones")
	profileName := firstSet(*profile, cfg.Profile)
	if len(projects) == 0 {
		projects = cfg.Projects
	}
	if len(extraColumns) == 0 {
		extraColumns = cfg.ExtraColumns
	}

	if *output == "" {
		log.Fatal("Error: --output is required")
	}

	ctx := context.Background()
	columns := hso.MergeColumns(polaris.DefaultColumns, extraColumns)

	awsCfg, err := ingest.NewAWSConfig(ctx, region, profileName)
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
		fmt.Printf("Loaded %d Polaris rows from %s\n", len(sheetTable.Rows), *polarisPath)
	}

	kvTable, err := hso.LoadTable(ctx, ddb, tableName, columns, projects)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Loaded %d sales-offer rows from %s\n", len(kvTable.Rows), tableName)

	combined := hso.CombineSources(sheetTable, kvTable, columns)
	if len(combined.Rows) == 0 {
		fmt.Fprintln(os.Stderr, "No records found for the requested parameters.")
		os.Exit(1)
	}

	now := time.Now()
	extraction := now.UTC().Format(time.RFC3339)
	records := make([]dataset.Record, 0, len(combined.Rows))
	for _, rec := range combined.Rows {
		rec["pk"] = hso.BuildPK(rec)
		rec["ExtractedAt"] = extraction
		records = append(records, rec)
	}

	index := ops.LoadIndex(ctx, ddb, opsTableName)
	resolved := ops.ResolveAsOf(index, now)

	tableRows, summaryRows, opsMatches := report.Assemble(records, resolved, now)
	if opsMatches > 0 {
		fmt.Printf("Applied ops milestone overrides to %d rows\n", opsMatches)
	}

	chartsDir := filepath.Join(filepath.Dir(*output), "_charts_temp")
	chartPaths, err := charts.Render(chartsDir, charts.Summarize(summaryRows, now))
	if err != nil {
		log.Printf("Warning: unable to render summary charts: %v", err)
	}

	layout := report.Layout{
		Title:    firstSet(*title, cfg.Title, "Sales Summary and Transaction Report"),
		Subtitle: firstSet(*subtitle, cfg.Subtitle, now.Format("Generated 01/02/2006 03:04 PM")),
		LogoPath: firstSet(*logoPath, cfg.Logo),
	}
	if err := report.WritePDF(tableRows, *output, layout, chartPaths); err != nil {
		log.Fatalf("Error: unable to write %s: %v", *output, err)
	}
	charts.Cleanup(chartsDir, chartPaths)
	fmt.Printf("Report written to %s (%d table rows, %d summary rows)\n", *output, len(tableRows), len(summaryRows))

	if *history {
		run := &models.RunRecord{
			GeneratedAt:  now.UTC(),
			OutputPath:   *output,
			TableRows:    len(tableRows),
			SummaryRows:  len(summaryRows),
			OpsMatches:   opsMatches,
			StatusCounts: models.CountStatuses(statusList(tableRows)),
		}
		if err := recordRun(ctx, cfg.HistoryDSN, run); err != nil {
			log.Printf("Warning: unable to record report run: %v", err)
		}
	}
}

func statusList(rows []dataset.Record) []int {
	statuses := make([]int, 0, len(rows))
	for _, rec := range rows {
		if num, ok := dataset.ParseNumber(rec["StatusNumeric"]); ok {
			statuses = append(statuses, int(num))
		}
	}
	return statuses
}

func recordRun(ctx context.Context, dsn string, run *models.RunRecord) error {
	if err := store.InitDB(ctx, dsn); err != nil {
		return err
	}
	defer store.Close()
	repo := store.NewRunsRepo()
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.Save(ctx, run)
}
