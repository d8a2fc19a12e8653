// Package polaris normalizes Polaris spreadsheet exports into the canonical
// sales-report schema: status ranking, legacy unit renumbering, alternate
// project naming, buyer combination, and date coercion.
package polaris

import (
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// StatusOrder ranks contract statuses for sorting. Unknown labels rank 99.
var StatusOrder = map[string]int{
	"Closed":                    1,
	"Ratified - Fully executed": 2,
	"Offer - Out for signature": 3,
	"Available":                 4,
	"Pending Release":           5,
}

// ExcludedProjects are dropped during normalization, compared lowercase.
var ExcludedProjects = map[string]bool{
	"fusion": true,
}

const (
	DefaultSkipRows  = 11
	DefaultSheetName = "HBFA Report"
)

// DefaultColumns is the canonical column order shared by the merge and
// report stages.
var DefaultColumns = []string{
	"Project Name",
	"AltProjectName",
	"Contract Unit Number",
	"Unit Name",
	"Buyer Contract: Unit Name",
	"Buyer Contract: Base Price",
	"Buyer Contract: Buyer 1: Full Name",
	"Buyer Contract: Buyer 2: Full Name",
	"Buyer Contract: Buyer 2 Email",
	"Buyer Contract: Appraiser Visit Date",
	"Buyer Contract: COE Date",
	"Buyer Contract: Extended/Adjusted COE",
	"Buyer Contract: Primary Lender",
	"Buyer Contract: Primary Loan Officer: Full Name",
	"Buyer Contract: Projected Closing Date",
	"Buyer Contract: Total Credits",
	"Buyer Contract: Week Ratified Date",
	"Buyer Contract: Buyer - Email",
	"Buyer Contract: Buyer - Mobile Phone",
	"Buyer Contract: Cash?",
	"Buyer Contract: Contract Sent Date",
	"Buyer Contract: Deposits Received to Date",
	"Escrow Number",
	"Final Price",
	"Buyer Contract: Financing Contingency Date",
	"Buyer Contract: Fully Executed Date",
	"Buyer Contract: HOA Credit",
	"Buyer Contract: Initial Deposit Amount",
	"Buyer Contract: Initial Deposit Receipt Date",
	"Buyer Contract: Investor/Owner",
	"List Price",
	"Lot Number",
	"Buyer Contract: Notes",
	"Buyer Contract: Unit Phase",
	"Buyer Contract: Agent Brokerage",
	"Buyer Contract: Referring Agent: Email",
	"Buyer Contract: Referring Agent: Full Name",
	"Buyer Contract: Seller Credit",
	"Buyer Contract: Total Upgrades + Solar",
	"Unit Number",
	"Buyer Contract: Upgrade Credit",
	"Status",
	"StatusNumeric",
	"Buyers Combined",
}

// DateColumns are coerced to UTC-midnight dates during normalization.
var DateColumns = []string{
	"Buyer Contract: Appraiser Visit Date",
	"Buyer Contract: COE Date",
	"Buyer Contract: Extended/Adjusted COE",
	"Buyer Contract: Projected Closing Date",
	"Buyer Contract: Week Ratified Date",
	"Buyer Contract: Contract Sent Date",
	"Buyer Contract: Financing Contingency Date",
	"Buyer Contract: Fully Executed Date",
	"Buyer Contract: Initial Deposit Receipt Date",
}

// AssignStatusNumeric returns the sort rank for a status label.
func AssignStatusNumeric(status string) int {
	if rank, ok := StatusOrder[status]; ok {
		return rank
	}
	return 99
}

// RenumberUnits shifts SoMi Haypark condo units >= 200 up by 1000 to avoid
// collisions in the legacy numbering scheme. Non-integer unit numbers and
// other projects pass through unchanged.
func RenumberUnits(unitName any, contractUnitNumber any) any {
	name, ok := unitName.(string)
	if !ok || !strings.Contains(strings.ToLower(name), "somi condos") {
		return contractUnitNumber
	}
	n, ok := dataset.ParseInt(contractUnitNumber)
	if !ok {
		return contractUnitNumber
	}
	if n >= 200 {
		return strconv.FormatInt(1000+n, 10)
	}
	return contractUnitNumber
}

// AltProjectName derives the display project name. SoMi Hayward splits by
// unit-name substring; the HayPark/Haypark branches differ only by case and
// must be checked in this order.
func AltProjectName(projectName, unitName any) string {
	project, ok := projectName.(string)
	if !ok {
		return dataset.ValueString(projectName)
	}
	if project != "SoMi Hayward" {
		return project
	}
	if name, isStr := unitName.(string); isStr {
		if strings.Contains(name, "SoMi HayPark") {
			return "SoMi Towns"
		}
		if strings.Contains(name, "SoMi Haypark") {
			return "SoMi Condos"
		}
		if strings.Contains(name, "SoMi HayView") {
			return "SoMi HayView"
		}
	}
	return "SoMi Hayward"
}

// CombineBuyers joins the two buyer names with " and ". Absent values are
// treated as empty, never as literal null text.
func CombineBuyers(buyer1, buyer2 any) string {
	b1 := dataset.ValueString(buyer1)
	b2 := dataset.ValueString(buyer2)
	if b1 != "" && b2 != "" {
		return b1 + " and " + b2
	}
	if b1 != "" {
		return b1
	}
	return b2
}

var totalWordRe = regexp.MustCompile(`(?i)\btotal\b`)

// dropTotals truncates the table at the first summary row (first column
// containing the word "Total") and drops any remaining Total rows keyed by
// project name.
func dropTotals(tbl *dataset.Table) *dataset.Table {
	if len(tbl.Rows) == 0 || len(tbl.Columns) == 0 {
		return tbl
	}
	first := tbl.Columns[0]
	cut := -1
	for i, rec := range tbl.Rows {
		text := dataset.CellString(rec, first)
		rec[first] = text
		if cut == -1 && totalWordRe.MatchString(text) {
			cut = i
		}
	}
	rows := tbl.Rows
	if cut >= 0 {
		rows = rows[:cut]
	}
	out := dataset.NewTable(tbl.Columns...)
	for _, rec := range rows {
		if totalWordRe.MatchString(dataset.CellString(rec, "Project Name")) {
			continue
		}
		if totalWordRe.MatchString(dataset.CellString(rec, "AltProjectName")) {
			continue
		}
		out.Append(rec)
	}
	return out
}

// ProcessTable normalizes a raw Polaris export table: trims column names,
// drops totals and blank/excluded projects, derives StatusNumeric,
// renumbered unit numbers, AltProjectName and Buyers Combined, coerces date
// columns, and projects onto the caller's column list (the derived columns
// are appended when the caller list omits them).
func ProcessTable(tbl *dataset.Table, columnsToKeep []string) *dataset.Table {
	if columnsToKeep == nil {
		columnsToKeep = DefaultColumns
	}
	out := tbl.Clone()
	trimColumnNames(out)
	out = dropTotals(out)

	filtered := dataset.NewTable(out.Columns...)
	for _, rec := range out.Rows {
		project := dataset.CellString(rec, "Project Name")
		if project == "" {
			continue
		}
		if ExcludedProjects[strings.ToLower(project)] {
			continue
		}
		filtered.Append(rec)
	}
	out = filtered

	hasStatus := out.HasColumn("Status")
	renumber := out.HasColumn("Unit Name") && out.HasColumn("Contract Unit Number")
	for _, rec := range out.Rows {
		if hasStatus {
			rec["StatusNumeric"] = AssignStatusNumeric(dataset.CellString(rec, "Status"))
		}
		if renumber {
			rec["Contract Unit Number"] = RenumberUnits(rec["Unit Name"], rec["Contract Unit Number"])
		}
		rec["AltProjectName"] = AltProjectName(rec["Project Name"], rec["Unit Name"])
		rec["Buyers Combined"] = CombineBuyers(
			rec["Buyer Contract: Buyer 1: Full Name"],
			rec["Buyer Contract: Buyer 2: Full Name"],
		)
	}

	out.CoerceDates(DateColumns)

	keep := make([]string, len(columnsToKeep))
	copy(keep, columnsToKeep)
	var missingRequired []string
	for _, col := range []string{"AltProjectName", "Buyers Combined", "StatusNumeric"} {
		if !containsColumn(keep, col) {
			missingRequired = append(missingRequired, col)
		}
	}
	sort.Strings(missingRequired)
	keep = append(keep, missingRequired...)

	if missing := out.EnsureColumns(keep); len(missing) > 0 {
		log.Printf("Missing columns in export: %s", strings.Join(missing, ", "))
	}
	return out.Project(keep)
}

func trimColumnNames(tbl *dataset.Table) {
	renames := make(map[string]string)
	for i, col := range tbl.Columns {
		trimmed := strings.TrimSpace(col)
		if trimmed != col {
			renames[col] = trimmed
			tbl.Columns[i] = trimmed
		}
	}
	if len(renames) == 0 {
		return
	}
	for _, rec := range tbl.Rows {
		for old, clean := range renames {
			if v, ok := rec[old]; ok {
				rec[clean] = v
				delete(rec, old)
			}
		}
	}
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
