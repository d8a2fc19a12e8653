package ops

import (
	"testing"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

var testToday = time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)

func buildingItem(project, buildingID string, overrides map[string]any, updated string) map[string]any {
	data := map[string]any{"building": map[string]any{
		"building_id": buildingID,
		"overrides":   overrides,
	}}
	item := map[string]any{"pk": project + "#" + buildingID, "sk": "#building::" + NormalizeBuildingID(buildingID), "data": data}
	if updated != "" {
		item["updated_at"] = updated
	}
	return item
}

func unitItem(project string, unit any, buildingID string, overrides map[string]any, updated string) map[string]any {
	unitPayload := map[string]any{"unit_number": unit}
	if buildingID != "" {
		unitPayload["building_id"] = buildingID
	}
	if overrides != nil {
		unitPayload["overrides"] = overrides
	}
	item := map[string]any{"pk": project, "sk": NormalizeUnitNumber(unit), "data": map[string]any{"unit": unitPayload}}
	if updated != "" {
		item["updated_at"] = updated
	}
	return item
}

func TestBuildIndexLaterTimestampWins(t *testing.T) {
	older := unitItem("aria", 12, "A", map[string]any{"cabinets": "2025-01-10"}, "2025-02-01T08:00:00Z")
	newer := unitItem("aria", 12, "A", map[string]any{"cabinets": "2025-03-10"}, "2025-02-02T08:00:00Z")

	// Scan order must not matter, only the timestamp.
	for _, items := range [][]map[string]any{{older, newer}, {newer, older}} {
		ix := BuildIndex(items)
		entry, ok := ix.Get("aria", "12")
		if !ok {
			t.Fatal("Expected entry for aria/12")
		}
		if got := entry.Overrides["cabinets"]; got != "2025-03-10" {
			t.Errorf("Expected newer overrides to win, got %v", got)
		}
	}
}

func TestBuildIndexEqualTimestampKeepsFirst(t *testing.T) {
	first := unitItem("aria", 12, "A", map[string]any{"cabinets": "first"}, "2025-02-01T08:00:00Z")
	second := unitItem("aria", 12, "A", map[string]any{"cabinets": "second"}, "2025-02-01T08:00:00Z")
	ix := BuildIndex([]map[string]any{first, second})
	entry, _ := ix.Get("aria", "12")
	if got := entry.Overrides["cabinets"]; got != "first" {
		t.Errorf("Expected first entry to survive an equal timestamp, got %v", got)
	}
}

func TestBuildIndexMissingTimestampNeverOverwrites(t *testing.T) {
	stamped := unitItem("aria", 12, "A", map[string]any{"cabinets": "stamped"}, "2025-02-01T08:00:00Z")
	unstamped := unitItem("aria", 12, "A", map[string]any{"cabinets": "unstamped"}, "")
	ix := BuildIndex([]map[string]any{stamped, unstamped})
	entry, _ := ix.Get("aria", "12")
	if got := entry.Overrides["cabinets"]; got != "stamped" {
		t.Errorf("Expected timestamped entry to survive, got %v", got)
	}

	// The reverse replacement is allowed.
	ix = BuildIndex([]map[string]any{unstamped, stamped})
	entry, _ = ix.Get("aria", "12")
	if got := entry.Overrides["cabinets"]; got != "stamped" {
		t.Errorf("Expected timestamped entry to replace an unstamped one, got %v", got)
	}
}

func TestBuildIndexDecodesStringPayload(t *testing.T) {
	item := map[string]any{
		"pk":         "aria#7",
		"sk":         "7",
		"data":       "{'unit': {'unit_number': 7, 'overrides': {'cabinets': '2025-01-10'},},}",
		"updated_at": "2025-02-01T08:00:00Z",
	}
	ix := BuildIndex([]map[string]any{item})
	entry, ok := ix.Get("aria", "7")
	if !ok {
		t.Fatal("Expected sloppy string payload to decode into an entry")
	}
	if got := entry.Overrides["cabinets"]; got != "2025-01-10" {
		t.Errorf("Expected decoded override, got %v", got)
	}
}

func TestBuildIndexMetadataOnlyEntry(t *testing.T) {
	withBuilding := unitItem("aria", 31, "Building B", nil, "2025-02-01T08:00:00Z")
	bare := unitItem("aria", 32, "", nil, "2025-02-01T08:00:00Z")
	ix := BuildIndex([]map[string]any{withBuilding, bare})

	entry, ok := ix.Get("aria", "31")
	if !ok {
		t.Fatal("Expected metadata-only entry when a building id is resolvable")
	}
	if len(entry.Overrides) != 0 {
		t.Errorf("Expected empty overrides, got %v", entry.Overrides)
	}
	if entry.NormalizedBuildingID != "buildingb" {
		t.Errorf("Expected normalized building id buildingb, got %q", entry.NormalizedBuildingID)
	}
	if _, ok := ix.Get("aria", "32"); ok {
		t.Error("Expected unit without overrides or building id to be skipped")
	}
}

func TestBuildIndexBuildingSentinelIsNotAUnit(t *testing.T) {
	item := buildingItem("aria", "A", map[string]any{"foundation": "2025-01-01"}, "2025-02-01T08:00:00Z")
	ix := BuildIndex([]map[string]any{item})
	if ix.Len() != 1 {
		t.Fatalf("Expected a single building entry, got %d", ix.Len())
	}
	if _, ok := ix.Get("aria", "#building::a"); !ok {
		t.Error("Expected building sentinel entry for aria")
	}
}

func TestResolveLatestBuildingMilestone(t *testing.T) {
	items := []map[string]any{
		buildingItem("aria", "A", map[string]any{
			"foundation": "2025-01-01",
			"framing":    "2025-03-01",
			"roofing":    "2025-12-01", // future as of testToday
		}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 12, "A", nil, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	got, ok := resolved[Key{Project: "aria", Unit: "12"}]
	if !ok {
		t.Fatal("Expected resolution for aria/12")
	}
	if !got.HasMilestone || got.Code != "B2" {
		t.Errorf("Expected B2 from latest qualifying milestone, got %+v", got)
	}
	if want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC); !got.Date.Equal(want) {
		t.Errorf("Expected milestone date %v, got %v", want, got.Date)
	}
	if got.BuildingID != "A" {
		t.Errorf("Expected building display A, got %q", got.BuildingID)
	}
}

func TestResolveEqualDatesPreferLaterCode(t *testing.T) {
	items := []map[string]any{
		buildingItem("aria", "A", map[string]any{
			"foundation": "2025-03-01",
			"framing":    "2025-03-01",
		}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 12, "A", nil, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	if got := resolved[Key{Project: "aria", Unit: "12"}]; got.Code != "B2" {
		t.Errorf("Expected the later code to win an equal-date tie, got %q", got.Code)
	}
}

func TestResolveTerminalHandsOffToUnitCodes(t *testing.T) {
	items := []map[string]any{
		buildingItem("aria", "A", map[string]any{"building_complete": "2025-05-01"}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 12, "A", map[string]any{
			"cabinets":    "2025-06-01",
			"countertops": "2025-07-01",
			"flooring":    "2025-12-01", // future
		}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 13, "A", nil, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)

	if got := resolved[Key{Project: "aria", Unit: "12"}]; got.Code != "U2" {
		t.Errorf("Expected terminal building to hand off to U2, got %q", got.Code)
	}
	// A unit with no qualifying unit milestones stays on the terminal code.
	if got := resolved[Key{Project: "aria", Unit: "13"}]; got.Code != "B11" {
		t.Errorf("Expected unit without overrides to report B11, got %q", got.Code)
	}
}

func TestResolveUnitCodesIgnoredBeforeTerminal(t *testing.T) {
	items := []map[string]any{
		buildingItem("aria", "A", map[string]any{"framing": "2025-03-01"}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 12, "A", map[string]any{"cabinets": "2025-04-01"}, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	if got := resolved[Key{Project: "aria", Unit: "12"}]; got.Code != "B2" {
		t.Errorf("Expected building milestone to mask unit codes before terminal, got %q", got.Code)
	}
}

func TestResolvePreKickoffSuppressesMilestones(t *testing.T) {
	buildingKickoff := map[string]any{
		"pk": "aria#A",
		"sk": "#building::a",
		"data": map[string]any{"building": map[string]any{
			"building_id": "A",
			"pre_kickoff": true,
			"overrides":   map[string]any{"foundation": "2025-01-01"},
		}},
		"updated_at": "2025-02-01T08:00:00Z",
	}
	items := []map[string]any{
		buildingKickoff,
		unitItem("aria", 12, "A", nil, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	got := resolved[Key{Project: "aria", Unit: "12"}]
	if got.HasMilestone {
		t.Errorf("Expected pre-kickoff building to suppress milestones, got %+v", got)
	}
	if got.BuildingID != "A" {
		t.Errorf("Expected building display to survive pre-kickoff, got %q", got.BuildingID)
	}

	// The flag on the unit payload suppresses that unit only.
	unitKickoff := map[string]any{
		"pk": "vida",
		"sk": "5",
		"data": map[string]any{"unit": map[string]any{
			"unit_number": 5,
			"building_id": "B",
			"pre_kickoff": true,
		}},
		"updated_at": "2025-02-01T08:00:00Z",
	}
	items = []map[string]any{
		buildingItem("vida", "B", map[string]any{"framing": "2025-03-01"}, "2025-02-01T08:00:00Z"),
		unitKickoff,
		unitItem("vida", 6, "B", nil, "2025-02-01T08:00:00Z"),
	}
	resolved = ResolveAsOf(BuildIndex(items), testToday)
	if got := resolved[Key{Project: "vida", Unit: "5"}]; got.HasMilestone {
		t.Errorf("Expected pre-kickoff unit to resolve without a milestone, got %+v", got)
	}
	if got := resolved[Key{Project: "vida", Unit: "6"}]; got.Code != "B2" {
		t.Errorf("Expected sibling unit to still resolve B2, got %q", got.Code)
	}
}

func TestResolveUnknownBuildingFallsBackToFirst(t *testing.T) {
	items := []map[string]any{
		buildingItem("aria", "A", map[string]any{"foundation": "2025-01-01"}, "2025-02-01T08:00:00Z"),
		buildingItem("aria", "B", map[string]any{"framing": "2025-03-01"}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 12, "C", nil, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	got := resolved[Key{Project: "aria", Unit: "12"}]
	if got.Code != "B1" {
		t.Errorf("Expected fallback to the first recorded building, got %q", got.Code)
	}
	if got.BuildingID != "C" {
		t.Errorf("Expected unit's own building display to win, got %q", got.BuildingID)
	}
}

func TestResolveEstimateFiltering(t *testing.T) {
	items := []map[string]any{
		unitItem("aria", 12, "A", map[string]any{"projected_coe": "2025-08-01"}, "2025-02-01T08:00:00Z"),
		unitItem("aria", 13, "A", map[string]any{"projected_coe": "2026-01-15"}, "2025-02-01T08:00:00Z"),
	}
	resolved := ResolveAsOf(BuildIndex(items), testToday)
	if got := resolved[Key{Project: "aria", Unit: "12"}]; !got.HasEstimate {
		t.Errorf("Expected past-dated estimate to be exposed, got %+v", got)
	}
	if got := resolved[Key{Project: "aria", Unit: "13"}]; got.HasEstimate {
		t.Errorf("Expected future-dated estimate to be filtered, got %+v", got)
	}
}

func TestNormalizeUnitNumber(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{205, "205"},
		{float64(205), "205"},
		{"205", "205"},
		{"  SMT-12 ", "SMT-12"},
		{"012", "12"},
		{12.5, "12.5"},
		{nil, ""},
	}
	for _, c := range cases {
		if got := NormalizeUnitNumber(c.in); got != c.want {
			t.Errorf("NormalizeUnitNumber(%v): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestApplyFuzzyKeys(t *testing.T) {
	resolved := map[Key]Resolved{
		{Project: "somi haypark", Unit: "1205"}: {
			Code:         "B2",
			Date:         time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			HasMilestone: true,
			BuildingID:   "Building 3",
		},
		{Project: "vida", Unit: "8"}: {
			EstimatedCOE: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
			HasEstimate:  true,
		},
	}
	rows := []dataset.Record{
		// Matches via the alias map: "SoMi Towns" maps to ops "SoMi Haypark",
		// and the unit key comes from the segment after the last hyphen.
		{"Project Name": "SoMi Hayward", "AltProjectName": "SoMi Towns", "Contract Unit Number": "SMT-1205"},
		// Matches on the raw project name and trailing digits.
		{"Project Name": "Vida", "AltProjectName": "", "Contract Unit Number": "Lot 8"},
		// No match; must stay untouched.
		{"Project Name": "Bay Village", "AltProjectName": "", "Contract Unit Number": "42"},
	}

	matched := Apply(rows, resolved)
	if matched != 2 {
		t.Errorf("Expected 2 matched rows, got %d", matched)
	}
	if got := rows[0][ColMilestoneCode]; got != "B2" {
		t.Errorf("Expected milestone code B2 on aliased row, got %v", got)
	}
	if got := rows[0][ColBuilding]; got != "Building 3" {
		t.Errorf("Expected building display on aliased row, got %v", got)
	}
	if _, ok := rows[1][ColMilestoneCode]; ok {
		t.Error("Expected estimate-only match to leave milestone columns unset")
	}
	if got := rows[1][ColEstimatedCOE]; got == nil {
		t.Error("Expected estimate column on trailing-digit match")
	}
	if _, ok := rows[2][ColBuilding]; ok {
		t.Error("Expected unmatched row to stay untouched")
	}
}

func TestApplyEmptyResolutionIsNoOp(t *testing.T) {
	rows := []dataset.Record{{"Project Name": "Aria", "Contract Unit Number": "12"}}
	if matched := Apply(rows, nil); matched != 0 {
		t.Errorf("Expected no matches against an empty resolution, got %d", matched)
	}
	if len(rows[0]) != 2 {
		t.Errorf("Expected row to stay untouched, got %v", rows[0])
	}
}
