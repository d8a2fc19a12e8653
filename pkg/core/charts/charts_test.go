package charts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

func chartRow(project, unit string, status int, ratified, coe string) dataset.Record {
	rec := dataset.Record{
		"AltProjectName":       project,
		"Contract Unit Number": unit,
		"StatusNumeric":        status,
	}
	if ratified != "" {
		if t, ok := dataset.ParseDate(ratified); ok {
			rec["Buyer Contract: Week Ratified Date"] = t
		}
	}
	if coe != "" {
		if t, ok := dataset.ParseDate(coe); ok {
			rec["Buyer Contract: COE Date"] = t
		}
	}
	return rec
}

func TestSummarizeAggregates(t *testing.T) {
	now := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	rows := []dataset.Record{
		chartRow("Aria", "1", 1, "2025-02-01", "2025-03-01"),  // YTD sale + YTD close
		chartRow("Aria", "2", 1, "2024-11-01", "2024-12-01"),  // closed last year
		chartRow("Aria", "3", 2, "2025-05-01", ""),            // backlog
		chartRow("Vida", "10", 4, "", ""),                     // available inventory
		chartRow("Vida", "11", 1, "2025-01-15", "2025-06-01"), // YTD sale + YTD close
	}

	sum := Summarize(rows, now)

	if got := len(sum.Projects); got != 2 {
		t.Fatalf("Expected 2 projects, got %d", got)
	}
	if sum.Projects[0] != "Aria" || sum.Projects[1] != "Vida" {
		t.Errorf("Expected sorted project names, got %v", sum.Projects)
	}
	// Three rows ratified in 2025: two Aria, one Vida.
	if len(sum.YTDSales) != 2 || sum.YTDSales[0] != (Slice{"Aria", 2}) || sum.YTDSales[1] != (Slice{"Vida", 1}) {
		t.Errorf("Unexpected YTD sales: %v", sum.YTDSales)
	}
	// Aria unit 2 closed in 2024, so YTD closed is one per project.
	if len(sum.YTDClosed) != 2 || sum.YTDClosed[0].Count != 1 || sum.YTDClosed[1].Count != 1 {
		t.Errorf("Unexpected YTD closed: %v", sum.YTDClosed)
	}
	if len(sum.TotalClosed) != 2 || sum.TotalClosed[0] != (Slice{"Aria", 2}) {
		t.Errorf("Unexpected total closed: %v", sum.TotalClosed)
	}
	if len(sum.Backlog) != 1 || sum.Backlog[0] != (Slice{"Aria", 1}) {
		t.Errorf("Unexpected backlog: %v", sum.Backlog)
	}
	// Aria: 3 units, 2 closed. Vida: 2 units, 1 closed.
	if len(sum.Inventory) != 2 || sum.Inventory[0].Count != 1 || sum.Inventory[1].Count != 1 {
		t.Errorf("Unexpected inventory: %v", sum.Inventory)
	}
}

func TestSummarizeDropsFullyClosedProjects(t *testing.T) {
	now := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	rows := []dataset.Record{
		chartRow("Aria", "1", 1, "", "2024-03-01"),
		chartRow("Vida", "2", 4, "", ""),
	}
	sum := Summarize(rows, now)
	if len(sum.Inventory) != 1 || sum.Inventory[0].Project != "Vida" {
		t.Errorf("Expected fully closed project to drop from inventory, got %v", sum.Inventory)
	}
}

func TestRenderSkipsEmptyAggregates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "_charts_temp")
	paths, err := Render(dir, Summary{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Expected no charts for an empty summary, got %v", paths)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Expected no chart directory for an empty summary")
	}
}

func TestRenderWritesAndCleansUp(t *testing.T) {
	now := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)
	rows := []dataset.Record{
		chartRow("Aria", "1", 1, "2025-02-01", "2025-03-01"),
		chartRow("Vida", "2", 2, "2025-04-01", ""),
		chartRow("Vida", "3", 4, "", ""),
	}
	dir := filepath.Join(t.TempDir(), "_charts_temp")
	paths, err := Render(dir, Summarize(rows, now))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(paths) != 5 {
		t.Fatalf("Expected 5 charts, got %d: %v", len(paths), paths)
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Expected chart file %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("Expected non-empty chart file %s", path)
		}
	}

	Cleanup(dir, paths)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Expected chart directory to be removed after cleanup")
	}
}
