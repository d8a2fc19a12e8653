// Package report assembles the merged dataset into sorted, deduplicated row
// sets and renders the paginated landscape PDF.
package report

// ColumnConfig describes one table column: the record key it reads, the
// printed header, its width in millimeters and the cell alignment.
type ColumnConfig struct {
	Key    string
	Header string
	Width  float64
	Align  string
}

// TableColumns is the report layout. Widths sum to 392mm, inside the 411.8mm
// printable width of the landscape page. The ops milestone and building
// columns sit at the far right.
var TableColumns = []ColumnConfig{
	{Key: "AltProjectName", Header: "Project", Width: 22.0, Align: "L"},
	{Key: "Contract Unit Number", Header: "Unit", Width: 19.0, Align: "L"},
	{Key: "Status", Header: "Status", Width: 22.0, Align: "L"},
	{Key: "Buyer Contract: COE Date", Header: "COE Date", Width: 17.0, Align: "L"},
	{Key: "Buyers Combined", Header: "Buyers Combined", Width: 34.0, Align: "L"},
	{Key: "Buyer Contract: Cash?", Header: "Cash?", Width: 12.0, Align: "C"},
	{Key: "Buyer Contract: Investor/Owner", Header: "Investor/Owner", Width: 22.0, Align: "L"},
	{Key: "Buyer Contract: Initial Deposit Amount", Header: "Initial Deposit", Width: 20.0, Align: "R"},
	{Key: "List Price", Header: "List Price", Width: 18.0, Align: "R"},
	{Key: "Buyer Contract: Base Price", Header: "Base Price", Width: 20.0, Align: "R"},
	{Key: "Final Price", Header: "Final Price", Width: 20.0, Align: "R"},
	{Key: "Buyer Contract: Contract Sent Date", Header: "Contract Sent Date", Width: 20.0, Align: "L"},
	{Key: "Buyer Contract: Appraiser Visit Date", Header: "Appraiser Visit Date", Width: 20.0, Align: "L"},
	{Key: "Buyer Contract: Notes", Header: "Notes", Width: 60.0, Align: "L"},
	{Key: "Ops Milestone Code", Header: "Ops MS", Width: 14.0, Align: "C"},
	{Key: "Ops Milestone Date", Header: "MS Date", Width: 18.0, Align: "L"},
	{Key: "Building", Header: "Building", Width: 16.0, Align: "C"},
	{Key: "Ops Est COE", Header: "Ops Est COE", Width: 18.0, Align: "L"},
}

// DateFields are rendered MM/DD/YYYY.
var DateFields = map[string]bool{
	"Buyer Contract: COE Date":             true,
	"Buyer Contract: Contract Sent Date":   true,
	"Buyer Contract: Appraiser Visit Date": true,
	"Ops Milestone Date":                   true,
	"Ops Est COE":                          true,
}

// CurrencyFields are rendered as whole dollars with thousands separators.
var CurrencyFields = map[string]bool{
	"Buyer Contract: Initial Deposit Amount": true,
	"List Price":                             true,
	"Buyer Contract: Base Price":             true,
	"Final Price":                            true,
}

// BooleanFields are rendered as Yes/No.
var BooleanFields = map[string]bool{
	"Buyer Contract: Cash?": true,
}

// RGB is a fill color for row highlighting.
type RGB struct {
	R, G, B int
}

// HighlightColors keys row fill by StatusNumeric. Unranked rows get no fill.
var HighlightColors = map[int]RGB{
	1: {244, 121, 131},
	2: {255, 196, 79},
	3: {255, 196, 79},
	4: {173, 221, 142},
	5: {200, 200, 200},
}

// StatusLegend pairs the ranked status labels with their highlight colors
// for the legend block drawn after the table.
var StatusLegend = []struct {
	Label  string
	Status int
}{
	{"Closed", 1},
	{"Ratified - Fully executed", 2},
	{"Offer - Out for signature", 3},
	{"Available", 4},
	{"Pending Release", 5},
	{"Unranked", 0},
}
