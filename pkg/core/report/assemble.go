package report

import (
	"sort"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/ops"
)

// farFuture sorts rows without a qualifying closing date after every real
// date.
var farFuture = time.Date(2262, time.April, 11, 0, 0, 0, 0, time.UTC)

type sortableRow struct {
	rec        dataset.Record
	alt        string
	status     int
	coe        time.Time
	hasCOE     bool
	coeSortKey time.Time
	unitNum    float64
	hasUnitNum bool
	unitText   string
	extracted  time.Time
	hasExtract bool
	pk         string
}

// Assemble turns merged records into the two row sets the report needs: the
// detail table, sorted and with closed rows from previous years dropped, and
// the summary set, deduplicated by pk keeping the newest extraction. Both
// sets carry the resolved milestone overrides; opsMatches counts the rows an
// override landed on.
func Assemble(records []dataset.Record, resolved map[ops.Key]ops.Resolved, today time.Time) (tableRows, summaryRows []dataset.Record, opsMatches int) {
	if len(records) == 0 {
		return nil, nil, 0
	}

	rows := make([]*sortableRow, 0, len(records))
	for _, raw := range records {
		rec := cloneRecord(raw)
		row := &sortableRow{rec: rec}

		if rec["AltProjectName"] == nil {
			rec["AltProjectName"] = ""
		}
		row.alt = dataset.ValueString(rec["AltProjectName"])

		status := 99
		if num, ok := dataset.ParseNumber(rec["StatusNumeric"]); ok {
			status = int(num)
		}
		rec["StatusNumeric"] = status
		row.status = status

		if rec["Buyers Combined"] == nil {
			rec["Buyers Combined"] = ""
		}

		if t, ok := dataset.ParseDate(rec["Buyer Contract: COE Date"]); ok {
			rec["Buyer Contract: COE Date"] = t
			row.coe, row.hasCOE = t, true
		} else {
			rec["Buyer Contract: COE Date"] = nil
		}

		if num, ok := dataset.ParseNumber(rec["Contract Unit Number"]); ok {
			row.unitNum, row.hasUnitNum = num, true
		}
		row.unitText = dataset.ValueString(rec["Contract Unit Number"])

		row.pk = dataset.ValueString(rec["pk"])
		if t, ok := dataset.ParseDate(rec["ExtractedAt"]); ok {
			row.extracted, row.hasExtract = t, true
		}
		rows = append(rows, row)
	}

	summaryRows = dedupSummary(rows)

	// Summary rows share the underlying maps, so one application pass covers
	// both row sets.
	if len(resolved) > 0 {
		all := make([]dataset.Record, len(rows))
		for i, row := range rows {
			all[i] = row.rec
		}
		opsMatches = ops.Apply(all, resolved)
	}

	year := today.Year()
	tableSort := make([]*sortableRow, 0, len(rows))
	for _, row := range rows {
		// Closed sales only stay on the report through the end of their
		// closing year.
		if row.status == 1 && !(row.hasCOE && row.coe.Year() == year) {
			continue
		}
		row.coeSortKey = farFuture
		if row.status == 1 && row.hasCOE {
			row.coeSortKey = row.coe
		}
		tableSort = append(tableSort, row)
	}

	sort.SliceStable(tableSort, func(i, j int) bool {
		a, b := tableSort[i], tableSort[j]
		if a.alt != b.alt {
			return a.alt < b.alt
		}
		if a.status != b.status {
			return a.status < b.status
		}
		if !a.coeSortKey.Equal(b.coeSortKey) {
			return a.coeSortKey.Before(b.coeSortKey)
		}
		// Closed rows sort by date alone, so their numeric unit key is
		// suppressed and the textual fallback decides.
		aok := a.hasUnitNum && a.status != 1
		bok := b.hasUnitNum && b.status != 1
		if aok != bok {
			return aok
		}
		if aok && a.unitNum != b.unitNum {
			return a.unitNum < b.unitNum
		}
		return a.unitText < b.unitText
	})

	tableRows = make([]dataset.Record, len(tableSort))
	for i, row := range tableSort {
		tableRows[i] = row.rec
	}
	return tableRows, summaryRows, opsMatches
}

// dedupSummary keeps, per pk, the row with the greatest (ExtractedAt, COE)
// pair. Rows without either date sort after dated ones and therefore win
// ties, matching the extraction history semantics of the raw table.
func dedupSummary(rows []*sortableRow) []dataset.Record {
	sorted := make([]*sortableRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ae, be := orFarFuture(a.extracted, a.hasExtract), orFarFuture(b.extracted, b.hasExtract)
		if !ae.Equal(be) {
			return ae.Before(be)
		}
		ac, bc := orFarFuture(a.coe, a.hasCOE), orFarFuture(b.coe, b.hasCOE)
		return ac.Before(bc)
	})
	last := make(map[string]int, len(sorted))
	for i, row := range sorted {
		last[row.pk] = i
	}
	out := make([]dataset.Record, 0, len(last))
	for i, row := range sorted {
		if last[row.pk] == i {
			out = append(out, row.rec)
		}
	}
	return out
}

func orFarFuture(t time.Time, ok bool) time.Time {
	if ok {
		return t
	}
	return farFuture
}

func cloneRecord(rec dataset.Record) dataset.Record {
	out := make(dataset.Record, len(rec)+4)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
