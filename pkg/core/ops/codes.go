// Package ops implements the construction-milestone override engine: it
// indexes the ops_milestones store, resolves a single "as of today"
// milestone per (project, unit), and joins the result onto canonical report
// rows with fuzzy project and unit key matching.
package ops

// Code is one milestone in an ordered vocabulary. Overrides may record a
// milestone under several historical field names; the first synonym with a
// non-empty value wins.
type Code struct {
	ID     string
	Fields []string
}

// BuildingCodes are the sequential construction-shell milestones. The last
// entry is the terminal code: unit-level milestones only become meaningful
// once the building reaches it.
var BuildingCodes = []Code{
	{ID: "B1", Fields: []string{"foundation_complete", "foundation", "slab_poured"}},
	{ID: "B2", Fields: []string{"framing_complete", "framing"}},
	{ID: "B3", Fields: []string{"roof_complete", "roofing", "roof_dry_in"}},
	{ID: "B4", Fields: []string{"windows_installed", "windows", "windows_doors"}},
	{ID: "B5", Fields: []string{"rough_mep_complete", "rough_mep", "rough_mechanical"}},
	{ID: "B6", Fields: []string{"insulation_complete", "insulation"}},
	{ID: "B7", Fields: []string{"drywall_complete", "drywall", "sheetrock"}},
	{ID: "B8", Fields: []string{"exterior_paint_complete", "exterior_paint", "stucco_paint"}},
	{ID: "B9", Fields: []string{"utilities_connected", "utilities", "power_on"}},
	{ID: "B10", Fields: []string{"final_inspection", "final_inspections", "building_final"}},
	{ID: "B11", Fields: []string{"building_complete", "shell_complete", "certificate_of_occupancy"}},
}

// TerminalBuildingCode hands resolution off to the unit vocabulary.
const TerminalBuildingCode = "B11"

// UnitCodes are the per-unit finishing milestones.
var UnitCodes = []Code{
	{ID: "U1", Fields: []string{"cabinets_installed", "cabinets"}},
	{ID: "U2", Fields: []string{"countertops_installed", "countertops", "counters"}},
	{ID: "U3", Fields: []string{"flooring_complete", "flooring", "floors"}},
	{ID: "U4", Fields: []string{"interior_paint_complete", "interior_paint", "paint"}},
	{ID: "U5", Fields: []string{"punch_walk_complete", "punch_walk", "punch_list", "qc_walk"}},
	{ID: "U6", Fields: []string{"unit_complete", "unit_final", "delivery_ready"}},
}

// EstimateFields name the ops closing-date estimate on unit payloads.
var EstimateFields = []string{"projected_coe", "estimated_coe", "est_coe"}

// AltProjectToOps translates internal alternate project names to the naming
// convention of the ops store.
var AltProjectToOps = map[string]string{
	"aria":         "Aria",
	"fusion":       "Fusion",
	"somi towns":   "SoMi Haypark",
	"somi condos":  "SoMi HayView",
	"somi hayview": "SoMi HayView",
	"somi haypark": "SoMi Haypark",
	"vida":         "Vida",
	"vida 2":       "Vida 2",
}
