package ops

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/utils"
)

// Entry is the deduplicated override state for one (project, location) key.
// Location is either a normalized unit number or a building sentinel of the
// form "#building" / "#building::<id>".
type Entry struct {
	ProjectKey           string
	LocationKey          string
	Overrides            map[string]any
	Timestamp            time.Time
	HasTimestamp         bool
	BuildingID           string
	NormalizedBuildingID string
	PreKickoff           bool
}

// Index holds override entries keyed by project then location, preserving
// first-seen order so that fallback scans are deterministic.
type Index struct {
	projects []string
	order    map[string][]string
	entries  map[string]map[string]*Entry
}

func NewIndex() *Index {
	return &Index{
		order:   make(map[string][]string),
		entries: make(map[string]map[string]*Entry),
	}
}

// Projects returns project keys in first-seen order.
func (ix *Index) Projects() []string { return ix.projects }

// Locations returns the location keys recorded for project, in first-seen
// order.
func (ix *Index) Locations(project string) []string { return ix.order[project] }

func (ix *Index) Get(project, location string) (*Entry, bool) {
	bucket, ok := ix.entries[project]
	if !ok {
		return nil, false
	}
	e, ok := bucket[location]
	return e, ok
}

// Len reports the total number of entries across all projects.
func (ix *Index) Len() int {
	n := 0
	for _, bucket := range ix.entries {
		n += len(bucket)
	}
	return n
}

// put applies the last-write-wins rule: a strictly later timestamp replaces
// the stored entry, and an entry without a timestamp never replaces one that
// has one.
func (ix *Index) put(e *Entry) {
	bucket, ok := ix.entries[e.ProjectKey]
	if !ok {
		bucket = make(map[string]*Entry)
		ix.entries[e.ProjectKey] = bucket
		ix.projects = append(ix.projects, e.ProjectKey)
	}
	existing, ok := bucket[e.LocationKey]
	if !ok {
		bucket[e.LocationKey] = e
		ix.order[e.ProjectKey] = append(ix.order[e.ProjectKey], e.LocationKey)
		return
	}
	if existing.HasTimestamp {
		if !e.HasTimestamp || !e.Timestamp.After(existing.Timestamp) {
			return
		}
	}
	bucket[e.LocationKey] = e
}

var buildingIDClean = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeProjectID lowercases and trims a raw project identifier.
func NormalizeProjectID(v any) string {
	return strings.ToLower(dataset.ValueString(v))
}

// NormalizeUnitNumber renders integers and integer-valued floats as plain
// digit strings and everything else as trimmed text, so that 205, 205.0 and
// "205" all index under the same key.
func NormalizeUnitNumber(v any) string {
	if v == nil {
		return ""
	}
	if n, ok := dataset.ParseInt(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return dataset.ValueString(v)
}

// NormalizeBuildingID strips everything but letters and digits, lowercased,
// so "Building A" and "bldg-a" can collide where appropriate.
func NormalizeBuildingID(v any) string {
	text := strings.ToLower(dataset.ValueString(v))
	return buildingIDClean.ReplaceAllString(text, "")
}

// BuildingKey returns the sentinel location key for a building entry.
func BuildingKey(normalizedID string) string {
	if normalizedID == "" {
		return "#building"
	}
	return "#building::" + normalizedID
}

// IsBuildingKey reports whether a location key names a building rather than
// a unit.
func IsBuildingKey(location string) bool {
	return strings.HasPrefix(location, "#building")
}

// BuildIndex folds raw ops_milestones items into a deduplicated Index. Each
// item may contribute a building-level entry, a unit-level entry, or both.
func BuildIndex(items []map[string]any) *Index {
	ix := NewIndex()
	for _, item := range items {
		projectKey := projectKeyOf(item)
		if projectKey == "" {
			continue
		}
		payload := decodePayload(item["data"])
		buildingPayload := asMap(payload["building"])
		unitPayload := asMap(payload["unit"])

		rawBuilding := firstText(buildingPayload, "building_id", "buildingId", "id")
		if rawBuilding == "" {
			rawBuilding = firstText(unitPayload, "building_id", "buildingId")
		}
		if rawBuilding == "" {
			rawBuilding = firstText(item, "building_id", "buildingId")
		}
		normBuilding := NormalizeBuildingID(rawBuilding)

		ts, hasTS := parseTimestamp(item["updated_at"])

		buildingOverrides := asMap(buildingPayload["overrides"])
		buildingKickoff := flagTrue(buildingPayload["pre_kickoff"])
		if len(buildingOverrides) > 0 || buildingKickoff {
			ix.put(&Entry{
				ProjectKey:           projectKey,
				LocationKey:          BuildingKey(normBuilding),
				Overrides:            buildingOverrides,
				Timestamp:            ts,
				HasTimestamp:         hasTS,
				BuildingID:           rawBuilding,
				NormalizedBuildingID: normBuilding,
				PreKickoff:           buildingKickoff,
			})
		}

		unitKey := NormalizeUnitNumber(firstValue(unitPayload, "unit_number", "unitNumber"))
		if unitKey == "" {
			unitKey = NormalizeUnitNumber(firstValue(item, "unit_number", "sk"))
		}
		if unitKey == "" || IsBuildingKey(unitKey) {
			continue
		}
		unitOverrides := asMap(unitPayload["overrides"])
		unitKickoff := flagTrue(unitPayload["pre_kickoff"])
		// Record a metadata-only entry for units without overrides when a
		// building identity is still resolvable, so the display column can be
		// hydrated later.
		if len(unitOverrides) == 0 && !unitKickoff && normBuilding == "" {
			continue
		}
		ix.put(&Entry{
			ProjectKey:           projectKey,
			LocationKey:          unitKey,
			Overrides:            unitOverrides,
			Timestamp:            ts,
			HasTimestamp:         hasTS,
			BuildingID:           rawBuilding,
			NormalizedBuildingID: normBuilding,
			PreKickoff:           unitKickoff,
		})
	}
	return ix
}

func projectKeyOf(item map[string]any) string {
	for _, field := range []string{"project_id", "project"} {
		if key := NormalizeProjectID(item[field]); key != "" {
			return key
		}
	}
	pk := dataset.ValueString(item["pk"])
	if pk == "" {
		return ""
	}
	head, _, _ := strings.Cut(pk, "#")
	return NormalizeProjectID(head)
}

// decodePayload accepts either a native map or a string-encoded JSON
// payload. String payloads go through the tolerant decode cascade; anything
// undecodable is treated as absent.
func decodePayload(v any) map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return val
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		decoded, err := utils.DecodeLooseMap(val)
		if err != nil {
			return nil
		}
		return decoded
	default:
		return nil
	}
}

func parseTimestamp(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	if t, ok := v.(time.Time); ok {
		return t, true
	}
	text := dataset.ValueString(v)
	if text == "" {
		return time.Time{}, false
	}
	t, ok := dataset.ParseDate(text)
	return t, ok
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func firstValue(m map[string]any, fields ...string) any {
	for _, field := range fields {
		if v, ok := m[field]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstText(m map[string]any, fields ...string) string {
	for _, field := range fields {
		if text := dataset.ValueString(m[field]); text != "" {
			return text
		}
	}
	return ""
}

func flagTrue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	default:
		if n, ok := dataset.ParseNumber(v); ok {
			return n != 0
		}
		return false
	}
}
