// Package charts computes the per-project aggregates shown on the report
// cover page and renders them as PNG images.
package charts

import (
	"sort"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// Slice is one project's contribution to a chart.
type Slice struct {
	Project string
	Count   int
}

// Summary holds the cover-page aggregates. Slices are sorted by descending
// count, ties broken by project name so output is stable run to run.
type Summary struct {
	Projects    []string
	YTDSales    []Slice
	YTDClosed   []Slice
	TotalClosed []Slice
	Backlog     []Slice
	Inventory   []Slice
}

// Summarize aggregates the summary rows by AltProjectName. Sales count rows
// ratified in the current year, closings are status 1 rows keyed off the COE
// date, backlog is status 2, and inventory is distinct units minus distinct
// closed units per project (projects fully closed out drop off the chart).
func Summarize(rows []dataset.Record, now time.Time) Summary {
	year := now.Year()
	sum := Summary{
		Projects: projectNames(rows),
		YTDSales: countBy(rows, func(rec dataset.Record) bool {
			return yearOf(rec, "Buyer Contract: Week Ratified Date") == year
		}),
		YTDClosed: countBy(rows, func(rec dataset.Record) bool {
			return statusIs(rec, 1) && yearOf(rec, "Buyer Contract: COE Date") == year
		}),
		TotalClosed: countBy(rows, func(rec dataset.Record) bool { return statusIs(rec, 1) }),
		Backlog:     countBy(rows, func(rec dataset.Record) bool { return statusIs(rec, 2) }),
	}
	sum.Inventory = inventoryBy(rows)
	return sum
}

func projectNames(rows []dataset.Record) []string {
	seen := make(map[string]bool)
	for _, rec := range rows {
		if name := dataset.ValueString(rec["AltProjectName"]); name != "" {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func countBy(rows []dataset.Record, match func(dataset.Record) bool) []Slice {
	counts := make(map[string]int)
	for _, rec := range rows {
		name := dataset.ValueString(rec["AltProjectName"])
		if name == "" || !match(rec) {
			continue
		}
		counts[name]++
	}
	return sortSlices(counts)
}

func inventoryBy(rows []dataset.Record) []Slice {
	units := make(map[string]map[string]bool)
	closed := make(map[string]map[string]bool)
	for _, rec := range rows {
		name := dataset.ValueString(rec["AltProjectName"])
		unit := dataset.ValueString(rec["Contract Unit Number"])
		if name == "" || unit == "" {
			continue
		}
		if units[name] == nil {
			units[name] = make(map[string]bool)
		}
		units[name][unit] = true
		if statusIs(rec, 1) {
			if closed[name] == nil {
				closed[name] = make(map[string]bool)
			}
			closed[name][unit] = true
		}
	}
	counts := make(map[string]int)
	for name, set := range units {
		if remaining := len(set) - len(closed[name]); remaining > 0 {
			counts[name] = remaining
		}
	}
	return sortSlices(counts)
}

func sortSlices(counts map[string]int) []Slice {
	slices := make([]Slice, 0, len(counts))
	for name, count := range counts {
		slices = append(slices, Slice{Project: name, Count: count})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Count != slices[j].Count {
			return slices[i].Count > slices[j].Count
		}
		return slices[i].Project < slices[j].Project
	})
	return slices
}

func statusIs(rec dataset.Record, status float64) bool {
	num, ok := dataset.ParseNumber(rec["StatusNumeric"])
	return ok && num == status
}

func yearOf(rec dataset.Record, column string) int {
	v, ok := rec[column]
	if !ok || v == nil {
		return 0
	}
	when, ok := dataset.ParseDate(v)
	if !ok {
		return 0
	}
	return when.Year()
}
