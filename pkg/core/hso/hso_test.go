package hso

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/polaris"
)

func TestCashDisplayVariants(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{true, "Yes"},
		{false, "No"},
		{"yes", "Yes"},
		{"Y", "Yes"},
		{"1", "Yes"},
		{"no", "No"},
		{"FALSE", "No"},
		{"0", "No"},
		{"Maybe", "Maybe"},
		{"", nil},
		{nil, nil},
	}
	for _, c := range cases {
		if got := CashDisplay(c.in); got != c.want {
			t.Errorf("CashDisplay(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestMapItemFallbackChains(t *testing.T) {
	item := map[string]any{
		"project_id":         "bay village",
		"unit_number":        decimal.NewFromInt(12),
		"adjusted_coe":       "2025-11-01",
		"buyer_email":        "buyer@example.com",
		"cash_purchase":      "y",
		"status":             "Closed",
		"list_price":         decimal.NewFromInt(450000),
		"base_price":         decimal.RequireFromString("449999.5"),
		"buyer_1__full_name": "Grace Hopper",
	}

	record := MapItem(item, polaris.DefaultColumns)

	// project_name missing, falls back to project_id.
	if record["Project Name"] != "bay village" {
		t.Errorf("Expected project_id fallback, got %v", record["Project Name"])
	}
	// contract_unit_number missing, falls back to unit_number (decimal 12 -> int64).
	if record["Contract Unit Number"] != int64(12) {
		t.Errorf("Expected unit_number fallback 12, got %v (%T)", record["Contract Unit Number"], record["Contract Unit Number"])
	}
	if record["Buyer Contract: Extended/Adjusted COE"] != "2025-11-01" {
		t.Errorf("Expected adjusted_coe fallback, got %v", record["Buyer Contract: Extended/Adjusted COE"])
	}
	if record["Buyer Contract: Buyer - Email"] != "buyer@example.com" {
		t.Errorf("Expected buyer_email fallback, got %v", record["Buyer Contract: Buyer - Email"])
	}
	if record["Buyer Contract: Cash?"] != "Yes" {
		t.Errorf("Expected cash_purchase y -> Yes, got %v", record["Buyer Contract: Cash?"])
	}
	// Whole decimals become int64, fractional become float64.
	if record["List Price"] != int64(450000) {
		t.Errorf("Expected list price int64 450000, got %v (%T)", record["List Price"], record["List Price"])
	}
	if record["Buyer Contract: Base Price"] != 449999.5 {
		t.Errorf("Expected base price float64 449999.5, got %v", record["Buyer Contract: Base Price"])
	}
	if record["Buyers Combined"] != "Grace Hopper" {
		t.Errorf("Expected derived buyers, got %v", record["Buyers Combined"])
	}
	// Unmapped canonical columns are present and nil.
	if v, ok := record["Escrow Number"]; !ok || v != nil {
		t.Errorf("Expected nil Escrow Number placeholder, got %v ok=%v", v, ok)
	}
}

func TestMapItemPrefersPrecombinedBuyers(t *testing.T) {
	record := MapItem(map[string]any{
		"project_name":       "Aria",
		"buyers_combined":    "Ada Lovelace and Alan Turing",
		"buyer_1__full_name": "Ignored",
	}, polaris.DefaultColumns)
	if record["Buyers Combined"] != "Ada Lovelace and Alan Turing" {
		t.Errorf("Expected precombined buyers preferred, got %v", record["Buyers Combined"])
	}
}

type fakeOffersTable struct {
	items []map[string]types.AttributeValue
	input *dynamodb.ScanInput
}

func (f *fakeOffersTable) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.input = params
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func TestLoadTableDropsExcludedAndBackfillsStatus(t *testing.T) {
	fake := &fakeOffersTable{items: []map[string]types.AttributeValue{
		{
			"project_id":  &types.AttributeValueMemberS{Value: "Fusion"},
			"unit_number": &types.AttributeValueMemberS{Value: "5"},
			"status":      &types.AttributeValueMemberS{Value: "Available"},
		},
		{
			"project_id":  &types.AttributeValueMemberS{Value: "Bay Village"},
			"unit_number": &types.AttributeValueMemberN{Value: "12"},
			"status":      &types.AttributeValueMemberS{Value: "Closed"},
		},
		{
			"project_id":    &types.AttributeValueMemberS{Value: "Aria"},
			"unit_number":   &types.AttributeValueMemberS{Value: "3"},
			"status":        &types.AttributeValueMemberS{Value: "Available"},
			"statusnumeric": &types.AttributeValueMemberN{Value: "4"},
		},
	}}

	tbl, err := LoadTable(context.Background(), fake, "hbfa_sales_offers", nil, nil)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if fake.input.FilterExpression != nil {
		t.Error("Expected no scan filter without a project list")
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("Expected the excluded project dropped, got %d rows", len(tbl.Rows))
	}
	for _, rec := range tbl.Rows {
		if dataset.CellString(rec, "Project Name") == "Fusion" {
			t.Error("Expected no Fusion rows in the loaded table")
		}
	}
	// Missing statusnumeric backfills from the status text.
	if got := tbl.Rows[0]["StatusNumeric"]; got != 1 {
		t.Errorf("Expected Closed to backfill StatusNumeric 1, got %v (%T)", got, got)
	}
	// A stored statusnumeric is kept as is.
	if got := tbl.Rows[1]["StatusNumeric"]; got != int64(4) {
		t.Errorf("Expected stored StatusNumeric 4 kept, got %v (%T)", got, got)
	}
}

func TestLoadTableBuildsProjectFilter(t *testing.T) {
	fake := &fakeOffersTable{}
	if _, err := LoadTable(context.Background(), fake, "hbfa_sales_offers", nil, []string{"Aria", "", "Vida"}); err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}
	if fake.input == nil || fake.input.FilterExpression == nil {
		t.Fatal("Expected a project_id scan filter")
	}
	// The blank entry is dropped before the IN operands are built.
	if len(fake.input.ExpressionAttributeValues) != 2 {
		t.Errorf("Expected 2 filter operands, got %d", len(fake.input.ExpressionAttributeValues))
	}
}

func TestCombineSourcesLastWriteWins(t *testing.T) {
	// Spreadsheet says Available; the sales-offers store says Closed. The
	// store row is appended second and must win the dedup.
	sheet := dataset.NewTable("Project Name", "Contract Unit Number", "Status")
	sheet.Append(dataset.Record{
		"Project Name":         "Bay Village",
		"Contract Unit Number": "12",
		"Status":               "Available",
	})
	kv := dataset.NewTable("Project Name", "Contract Unit Number", "Status")
	kv.Append(dataset.Record{
		"Project Name":         "Bay Village",
		"Contract Unit Number": float64(12),
		"Status":               "Closed",
	})

	columns := []string{"Project Name", "Contract Unit Number", "Status"}
	out := CombineSources(sheet, kv, columns)

	if len(out.Rows) != 1 {
		t.Fatalf("Expected exactly one row for Bay Village#12, got %d", len(out.Rows))
	}
	if got := dataset.CellString(out.Rows[0], "Status"); got != "Closed" {
		t.Errorf("Expected store status Closed to win, got %q", got)
	}
}

func TestCombineSourcesMergeIdempotence(t *testing.T) {
	columns := []string{"Project Name", "Contract Unit Number", "Status"}

	a := dataset.NewTable(columns...)
	a.Append(dataset.Record{"Project Name": "Aria", "Contract Unit Number": "1", "Status": "Available"})
	a.Append(dataset.Record{"Project Name": "Vida", "Contract Unit Number": "2", "Status": "Closed"})

	// A merged with an empty dataset yields A unchanged.
	out := CombineSources(a.Clone(), dataset.NewTable(columns...), columns)
	if len(out.Rows) != 2 {
		t.Fatalf("Expected A+empty to keep 2 rows, got %d", len(out.Rows))
	}
	for i, rec := range out.Rows {
		if dataset.CellString(rec, "Project Name") != dataset.CellString(a.Rows[i], "Project Name") {
			t.Errorf("Expected row %d unchanged, got %v", i, rec)
		}
	}

	// A merged with itself dedups back to |A| rows.
	out = CombineSources(a.Clone(), a.Clone(), columns)
	if len(out.Rows) != 2 {
		t.Errorf("Expected A+A to dedup to 2 rows, got %d", len(out.Rows))
	}
}

func TestBuildPK(t *testing.T) {
	pk := BuildPK(dataset.Record{"Project Name": " Bay Village ", "Contract Unit Number": "12"})
	if pk != "Bay Village#12" {
		t.Errorf("Expected Bay Village#12, got %v", pk)
	}
	if pk := BuildPK(dataset.Record{"Project Name": "Aria"}); pk != "Aria" {
		t.Errorf("Expected trailing separator trimmed, got %v", pk)
	}
	if pk := BuildPK(dataset.Record{}); pk != nil {
		t.Errorf("Expected nil pk for empty identity, got %v", pk)
	}
}
