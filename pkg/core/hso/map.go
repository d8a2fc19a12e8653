// Package hso loads the hbfa_sales_offers table (the live system of record)
// into the canonical schema and merges it with Polaris spreadsheet data.
// When both sources describe the same unit, the sales-offers row wins.
package hso

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
	"github.com/fox-dr/hbfa-ops-erp/pkg/core/polaris"
)

// DefaultTableName resolves the sales-offers table, honoring TARGET_TABLE.
func DefaultTableName() string {
	if v := os.Getenv("TARGET_TABLE"); v != "" {
		return v
	}
	return "hbfa_sales_offers"
}

// DefaultRegion resolves the sales-offers region from the environment.
func DefaultRegion() string {
	if v := os.Getenv("AWS_REGION"); v != "" {
		return v
	}
	if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		return v
	}
	return "us-east-2"
}

// CashDisplay normalizes boolean-ish fields to "Yes"/"No". Unrecognized text
// passes through as its string form; empty values stay absent.
func CashDisplay(value any) any {
	if value == nil {
		return nil
	}
	if b, ok := value.(bool); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	text := dataset.ValueString(value)
	if text == "" {
		return nil
	}
	switch strings.ToLower(text) {
	case "yes", "y", "true", "1":
		return "Yes"
	case "no", "n", "false", "0":
		return "No"
	}
	return text
}

// MapItem converts one sales-offers item into a canonical record. The
// fallback chains mirror the historical attribute names still present in
// older rows.
func MapItem(item map[string]any, columns []string) dataset.Record {
	record := make(dataset.Record, len(columns))
	for _, col := range columns {
		record[col] = nil
	}

	projectName := first(item, "project_name", "project_id")
	contractUnitNumber := first(item, "contract_unit_number", "unit_number")
	unitName := first(item, "unit_name", "unit_number")

	record["Project Name"] = projectName
	altName := first(item, "alt_project_name")
	if altName == nil {
		altName = projectName
	}
	if altName == nil {
		altName = item["project_id"]
	}
	record["AltProjectName"] = altName
	record["Contract Unit Number"] = contractUnitNumber
	record["Unit Name"] = unitName
	record["Buyer Contract: Unit Name"] = unitName
	record["Buyer Contract: Base Price"] = item["base_price"]
	record["Buyer Contract: Buyer 1: Full Name"] = item["buyer_1__full_name"]
	record["Buyer Contract: Buyer 2: Full Name"] = item["buyer_2_full_name"]
	record["Buyer Contract: Buyer 2 Email"] = item["buyer_2_email"]
	record["Buyer Contract: Appraiser Visit Date"] = item["appraiser_visit_date"]
	record["Buyer Contract: COE Date"] = item["coe_date"]
	record["Buyer Contract: Extended/Adjusted COE"] = first(item, "extended_adjusted_coe", "adjusted_coe")
	record["Buyer Contract: Primary Lender"] = item["primary_lender"]
	record["Buyer Contract: Primary Loan Officer: Full Name"] = item["primary_loan_officer_full_name"]
	record["Buyer Contract: Projected Closing Date"] = item["projected_closing_date"]
	record["Buyer Contract: Total Credits"] = item["total_credits"]
	record["Buyer Contract: Week Ratified Date"] = item["week_ratified_date"]
	record["Buyer Contract: Buyer - Email"] = first(item, "buyer1_email", "buyer_email", "buyer_primary_email")
	record["Buyer Contract: Buyer - Mobile Phone"] = item["buyer_mobile_phone"]
	record["Buyer Contract: Cash?"] = CashDisplay(first(item, "cash", "cash_purchase"))
	record["Buyer Contract: Contract Sent Date"] = item["contract_sent_date"]
	record["Buyer Contract: Deposits Received to Date"] = item["deposits_received_to_date"]
	record["Escrow Number"] = item["escrow_number"]
	record["Final Price"] = item["final_price"]
	record["Buyer Contract: Financing Contingency Date"] = item["financing_contingency_date"]
	record["Buyer Contract: Fully Executed Date"] = item["fully_executed_date"]
	record["Buyer Contract: HOA Credit"] = item["hoa_credit"]
	record["Buyer Contract: Initial Deposit Amount"] = item["initial_deposit_amount"]
	record["Buyer Contract: Initial Deposit Receipt Date"] = item["initial_deposit_receipt_date"]
	record["Buyer Contract: Investor/Owner"] = CashDisplay(item["investor_owner"])
	record["List Price"] = item["list_price"]
	record["Lot Number"] = item["lot_number"]
	record["Buyer Contract: Notes"] = item["notes"]
	record["Buyer Contract: Unit Phase"] = item["unit_phase"]
	record["Buyer Contract: Agent Brokerage"] = item["agent_brokerage"]
	record["Buyer Contract: Referring Agent: Email"] = item["referring_agent_email"]
	record["Buyer Contract: Referring Agent: Full Name"] = item["referring_agent_full_name"]
	record["Buyer Contract: Seller Credit"] = item["seller_credit"]
	record["Buyer Contract: Total Upgrades + Solar"] = item["total_upgrades_solar"]
	unitNumber := first(item, "unit_number")
	if unitNumber == nil {
		unitNumber = contractUnitNumber
	}
	record["Unit Number"] = unitNumber
	record["Buyer Contract: Upgrade Credit"] = item["upgrade_credit"]
	record["Status"] = item["status"]
	record["StatusNumeric"] = item["statusnumeric"]
	record["Buyers Combined"] = buyersCombined(item)

	for k, v := range record {
		record[k] = dataset.ConvertDecimal(v)
	}
	return record
}

func buyersCombined(item map[string]any) any {
	if v := first(item, "buyers_combined"); v != nil {
		return v
	}
	return polaris.CombineBuyers(item["buyer_1__full_name"], item["buyer_2_full_name"])
}

// first returns the first populated value among the keys. Empty strings,
// false booleans and zero numerics count as absent, matching how the older
// attribute fallbacks behaved.
func first(item map[string]any, keys ...string) any {
	for _, key := range keys {
		v, ok := item[key]
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
		case decimal.Decimal:
			if val.IsZero() {
				continue
			}
		case int64:
			if val == 0 {
				continue
			}
		case float64:
			if val == 0 {
				continue
			}
		}
		return v
	}
	return nil
}
