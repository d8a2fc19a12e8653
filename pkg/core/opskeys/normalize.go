// Package opskeys rewrites ops_milestones partition/sort keys to the
// canonical project and unit identifiers used by the sales offers dataset,
// so milestone lookups stop depending on fuzzy matching.
package opskeys

import (
	"strings"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// CanonicalProjects are the project names already in use by the sales
// offers table. Items resolving outside this set are left alone.
var CanonicalProjects = map[string]bool{
	"SoMi Towns": true,
	"SoMi A":     true,
	"SoMi B":     true,
	"Fusion":     true,
	"Aria":       true,
	"Vida":       true,
}

// ProjectAliasMap maps lowercase historical names to canonical ones when no
// building context is required.
var ProjectAliasMap = map[string]string{
	"somi haypark": "SoMi Towns",
	"somi hayview": "SoMi B", // default, refined by the building map below
	"fusion":       "Fusion",
	"aria":         "Aria",
	"vida":         "Vida",
}

type buildingAlias struct {
	base     string
	building string
}

// ProjectByBuilding refines ambiguous aliases using the normalized building
// identifier.
var ProjectByBuilding = map[buildingAlias]string{
	{"somi hayview", "building a"}: "SoMi A",
	{"somi hayview", "building b"}: "SoMi B",
	{"somi hayview", "bldg a"}:     "SoMi A",
	{"somi hayview", "bldg b"}:     "SoMi B",
	{"somi hayview", "tower a"}:    "SoMi A",
	{"somi hayview", "tower b"}:    "SoMi B",
}

// UnitPrefixByProject lists projects whose unit keys carry a normalized
// prefix with zero-padded digits.
var UnitPrefixByProject = map[string]string{
	"SoMi A": "HayView-",
	"SoMi B": "HayView-",
}

// Change records one planned key rewrite for logging and backups.
type Change struct {
	PKOld         string `json:"pk_old"`
	SKOld         string `json:"sk_old"`
	PKNew         string `json:"pk_new"`
	SKNew         string `json:"sk_new"`
	ProjectBefore string `json:"project_before"`
	ProjectAfter  string `json:"project_after"`
	UnitBefore    string `json:"unit_before"`
	UnitAfter     string `json:"unit_after"`
}

// Rewrite pairs a change with the rewritten item ready to store. Original
// is the untouched source item, kept for the backup snapshot.
type Rewrite struct {
	Change   Change
	Item     map[string]any
	Original map[string]any
}

func normalizeText(v any) string {
	return dataset.ValueString(v)
}

func normalizeLower(v any) string {
	return strings.ToLower(normalizeText(v))
}

func digitsOnly(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func zfill(text string, width int) string {
	for len(text) < width {
		text = "0" + text
	}
	return text
}

// GuessCanonicalProject resolves an item's canonical project from its pk,
// preferring the building-qualified map, then the plain alias map, then the
// raw pk base.
func GuessCanonicalProject(pk, buildingID string, item map[string]any) string {
	base, suffix, _ := strings.Cut(pk, "#")
	baseNorm := normalizeLower(base)
	bldgSource := buildingID
	if bldgSource == "" {
		bldgSource = suffix
	}
	if bldgSource == "" {
		if data, ok := item["data"].(map[string]any); ok {
			if building, ok := data["building"].(map[string]any); ok {
				bldgSource = firstText(building, "building_id", "buildingId", "id")
			}
		}
	}
	bldgNorm := normalizeLower(bldgSource)
	if mapped, ok := ProjectByBuilding[buildingAlias{baseNorm, bldgNorm}]; ok {
		return mapped
	}
	if mapped, ok := ProjectAliasMap[baseNorm]; ok {
		return mapped
	}
	return base
}

// NormalizeUnitSK rewrites a unit sort key to the project's convention. The
// "#building" sentinel passes through untouched, and keys already carrying
// the project prefix are kept as is.
func NormalizeUnitSK(project, sk string, item map[string]any) string {
	if sk == "#building" {
		return sk
	}
	text := strings.TrimSpace(sk)
	if text == "" {
		text = normalizeText(item["unit_number"])
	}
	if text == "" {
		if data, ok := item["data"].(map[string]any); ok {
			if unit, ok := data["unit"].(map[string]any); ok {
				text = firstText(unit, "unit_number", "unit_id", "unit_label")
			}
		}
	}
	if text == "" {
		return sk
	}
	prefix := UnitPrefixByProject[project]
	if prefix != "" {
		if strings.HasPrefix(strings.ToLower(text), strings.ToLower(prefix)) {
			return text
		}
		if digits := digitsOnly(text); digits != "" {
			return prefix + zfill(digits, 3)
		}
	}
	return text
}

// PlanItem decides whether a native item needs a key rewrite. It returns
// false for items with missing keys, projects outside the canonical set, or
// keys that are already normalized. The returned rewrite holds a deep copy;
// the input item is never mutated.
func PlanItem(item map[string]any) (*Rewrite, bool) {
	pk := normalizeText(item["pk"])
	sk := normalizeText(item["sk"])
	if pk == "" || sk == "" {
		return nil, false
	}
	buildingID := firstText(item, "building_id", "buildingId")
	canonical := GuessCanonicalProject(pk, buildingID, item)
	if !CanonicalProjects[canonical] {
		return nil, false
	}
	targetSK := NormalizeUnitSK(canonical, sk, item)
	if canonical == pk && targetSK == sk {
		return nil, false
	}

	cloned := cloneMap(item)
	cloned["pk"] = canonical
	cloned["sk"] = targetSK
	updatePayloadMetadata(cloned, canonical, targetSK)

	change := Change{
		PKOld:         pk,
		SKOld:         sk,
		PKNew:         canonical,
		SKNew:         targetSK,
		ProjectBefore: firstText(item, "project_id", "project"),
		ProjectAfter:  canonical,
	}
	if sk != "#building" {
		change.UnitBefore = sk
	}
	if targetSK != "#building" {
		change.UnitAfter = targetSK
	}
	return &Rewrite{Change: change, Item: cloned, Original: item}, true
}

func updatePayloadMetadata(item map[string]any, project, unitSK string) {
	item["project_id"] = project
	data, ok := item["data"].(map[string]any)
	if !ok {
		return
	}
	if building, ok := data["building"].(map[string]any); ok {
		building["project_id"] = project
	}
	if unit, ok := data["unit"].(map[string]any); ok {
		unit["project_id"] = project
		if unitSK != "#building" {
			unit["unit_number"] = unitSK
			if v, exists := unit["unit_id"]; exists && v != nil && normalizeText(v) != unitSK {
				unit["unit_id"] = unitSK
			}
		}
	}
}

func firstText(m map[string]any, fields ...string) string {
	for _, field := range fields {
		if text := normalizeText(m[field]); text != "" {
			return text
		}
	}
	return ""
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
