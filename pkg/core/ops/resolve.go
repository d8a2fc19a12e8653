package ops

import (
	"strings"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// Key addresses one resolved unit: a normalized project key plus a
// normalized unit number.
type Key struct {
	Project string
	Unit    string
}

// Resolved is the milestone state of one unit as of the resolution date.
type Resolved struct {
	Code         string
	Date         time.Time
	HasMilestone bool
	BuildingID   string
	EstimatedCOE time.Time
	HasEstimate  bool
}

type milestone struct {
	code string
	date time.Time
	ok   bool
}

// latestQualifying scans the vocabulary in sequence order and keeps the
// milestone with the latest date not after today. On equal dates the later
// code in the sequence wins.
func latestQualifying(overrides map[string]any, codes []Code, today time.Time) milestone {
	var best milestone
	for _, code := range codes {
		raw := firstOverride(overrides, code.Fields)
		if raw == nil {
			continue
		}
		when, ok := dataset.ParseDate(raw)
		if !ok {
			continue
		}
		day := dataset.Midnight(when)
		if day.After(today) {
			continue
		}
		if !best.ok || !day.Before(best.date) {
			best = milestone{code: code.ID, date: day, ok: true}
		}
	}
	return best
}

func firstOverride(overrides map[string]any, fields []string) any {
	for _, field := range fields {
		v, ok := overrides[field]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
		case bool:
			if !val {
				continue
			}
		}
		return v
	}
	return nil
}

type buildingState struct {
	entry *Entry
	m     milestone
}

// ResolveAsOf reduces the index to one Resolved per unit key. Building
// milestones drive the result until the building reaches the terminal code,
// at which point unit-level milestones take over. Milestones dated after
// today never qualify, and a pre-kickoff flag suppresses resolution for its
// key.
func ResolveAsOf(ix *Index, today time.Time) map[Key]Resolved {
	today = dataset.Midnight(today)
	out := make(map[Key]Resolved)
	for _, project := range ix.Projects() {
		var states []*buildingState
		byName := make(map[string]*buildingState)
		for _, loc := range ix.Locations(project) {
			if !IsBuildingKey(loc) {
				continue
			}
			entry, _ := ix.Get(project, loc)
			st := &buildingState{entry: entry}
			if !entry.PreKickoff {
				st.m = latestQualifying(entry.Overrides, BuildingCodes, today)
			}
			states = append(states, st)
			name := entry.NormalizedBuildingID
			if name == "" {
				name = "unknown"
			}
			if _, dup := byName[name]; !dup {
				byName[name] = st
			}
		}
		for _, loc := range ix.Locations(project) {
			if IsBuildingKey(loc) {
				continue
			}
			entry, _ := ix.Get(project, loc)
			name := entry.NormalizedBuildingID
			if name == "" {
				name = "unknown"
			}
			st := byName[name]
			if st == nil && len(states) > 0 {
				// Unit names a building we never indexed; fall back to the
				// first building recorded for the project.
				st = states[0]
			}
			res := Resolved{BuildingID: entry.BuildingID}
			if res.BuildingID == "" && st != nil {
				res.BuildingID = st.entry.BuildingID
			}
			if !entry.PreKickoff && st != nil && st.m.ok {
				res.Code, res.Date, res.HasMilestone = st.m.code, st.m.date, true
				if st.m.code == TerminalBuildingCode {
					if u := latestQualifying(entry.Overrides, UnitCodes, today); u.ok {
						res.Code, res.Date = u.code, u.date
					}
				}
			}
			if raw := firstOverride(entry.Overrides, EstimateFields); raw != nil {
				if when, ok := dataset.ParseDate(raw); ok {
					if day := dataset.Midnight(when); !day.After(today) {
						res.EstimatedCOE, res.HasEstimate = day, true
					}
				}
			}
			out[Key{Project: project, Unit: loc}] = res
		}
	}
	return out
}
