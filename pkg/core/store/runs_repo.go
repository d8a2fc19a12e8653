package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fox-dr/hbfa-ops-erp/pkg/models"
)

// RunsRepo records report generation runs for audit history.
type RunsRepo struct{}

// NewRunsRepo creates a new repository instance.
func NewRunsRepo() *RunsRepo {
	return &RunsRepo{}
}

// Schema is created on first use; no migration tooling is assumed.
const runsSchema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id UUID PRIMARY KEY,
		generated_at TIMESTAMPTZ NOT NULL,
		output_path TEXT NOT NULL,
		table_rows INTEGER NOT NULL,
		summary_rows INTEGER NOT NULL,
		ops_matches INTEGER NOT NULL,
		status_counts JSONB
	);
`

// EnsureSchema creates the report_runs table if it does not exist yet.
func (r *RunsRepo) EnsureSchema(ctx context.Context) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := pool.Exec(ctx, runsSchema); err != nil {
		return fmt.Errorf("failed to ensure report_runs schema: %w", err)
	}
	return nil
}

// Save inserts one run row, filling ID and GeneratedAt when unset.
func (r *RunsRepo) Save(ctx context.Context, run *models.RunRecord) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.GeneratedAt.IsZero() {
		run.GeneratedAt = time.Now().UTC()
	}

	counts, err := json.Marshal(run.StatusCounts)
	if err != nil {
		return fmt.Errorf("failed to marshal status counts: %w", err)
	}

	query := `
		INSERT INTO report_runs (id, generated_at, output_path, table_rows, summary_rows, ops_matches, status_counts)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	_, err = pool.Exec(ctx, query, run.ID, run.GeneratedAt, run.OutputPath, run.TableRows, run.SummaryRows, run.OpsMatches, counts)
	if err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}

	return nil
}
