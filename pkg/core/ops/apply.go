package ops

import (
	"regexp"
	"strings"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// Columns written onto report rows by Apply.
const (
	ColMilestoneCode = "Ops Milestone Code"
	ColMilestoneDate = "Ops Milestone Date"
	ColEstimatedCOE  = "Ops Est COE"
	ColBuilding      = "Building"
)

var trailingDigits = regexp.MustCompile(`(\d+)\s*$`)

// candidateProjectKeys derives the ordered project keys to probe for a row:
// the alternate project name, the raw project name, and the ops-convention
// alias of whichever of those is known.
func candidateProjectKeys(rec dataset.Record) []string {
	alt := dataset.ValueString(rec["AltProjectName"])
	project := dataset.ValueString(rec["Project Name"])
	aliased := ""
	if mapped, ok := AltProjectToOps[strings.ToLower(alt)]; ok {
		aliased = mapped
	} else if mapped, ok := AltProjectToOps[strings.ToLower(project)]; ok {
		aliased = mapped
	}
	return dedupeKeys(
		NormalizeProjectID(alt),
		NormalizeProjectID(project),
		NormalizeProjectID(aliased),
	)
}

// candidateUnitKeys derives the ordered unit keys to probe: the normalized
// contract unit number, the segment after its last hyphen, and any trailing
// digit run. "SMT-1205" therefore probes "smt-1205", "1205".
func candidateUnitKeys(rec dataset.Record) []string {
	raw := rec["Contract Unit Number"]
	text := dataset.ValueString(raw)
	keys := []string{NormalizeUnitNumber(raw)}
	if i := strings.LastIndex(text, "-"); i >= 0 && i+1 < len(text) {
		keys = append(keys, NormalizeUnitNumber(text[i+1:]))
	}
	if m := trailingDigits.FindStringSubmatch(text); m != nil {
		keys = append(keys, NormalizeUnitNumber(m[1]))
	}
	return dedupeKeys(keys...)
}

func dedupeKeys(keys ...string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// Apply joins resolved milestones onto report rows in place. For each row
// the first (project, unit) candidate combination present in resolved wins.
// Only milestone, estimate and building columns are touched; a row with no
// match is left as is. Returns the number of matched rows.
func Apply(rows []dataset.Record, resolved map[Key]Resolved) int {
	if len(resolved) == 0 {
		return 0
	}
	matched := 0
	for _, rec := range rows {
		hit, found := lookup(rec, resolved)
		if !found {
			continue
		}
		matched++
		if hit.HasMilestone {
			rec[ColMilestoneCode] = hit.Code
			rec[ColMilestoneDate] = hit.Date
		}
		if hit.HasEstimate {
			rec[ColEstimatedCOE] = hit.EstimatedCOE
		}
		if hit.BuildingID != "" {
			rec[ColBuilding] = hit.BuildingID
		}
	}
	return matched
}

func lookup(rec dataset.Record, resolved map[Key]Resolved) (Resolved, bool) {
	for _, project := range candidateProjectKeys(rec) {
		for _, unit := range candidateUnitKeys(rec) {
			if hit, ok := resolved[Key{Project: project, Unit: unit}]; ok {
				return hit, true
			}
		}
	}
	return Resolved{}, false
}
