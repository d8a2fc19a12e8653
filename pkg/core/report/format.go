package report

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// FormatCurrency renders a value as whole dollars with thousands separators.
// Nil, empty, zero and non-finite values render empty; text that does not
// parse as a number passes through unchanged.
func FormatCurrency(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if v == "" {
			return ""
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return v
		}
		return dollars(d)
	case decimal.Decimal:
		if v.IsZero() {
			return ""
		}
		return dollars(v)
	case float64:
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return dollars(decimal.NewFromFloat(v))
	case int:
		if v == 0 {
			return ""
		}
		return dollars(decimal.NewFromInt(int64(v)))
	case int64:
		if v == 0 {
			return ""
		}
		return dollars(decimal.NewFromInt(v))
	default:
		if num, ok := dataset.ParseNumber(v); ok {
			if num == 0 {
				return ""
			}
			return dollars(decimal.NewFromFloat(num))
		}
		return dataset.ValueString(v)
	}
}

func dollars(d decimal.Decimal) string {
	text := d.Round(0).String()
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")
	var b strings.Builder
	b.WriteByte('$')
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatBoolean normalizes boolean-like values to Yes/No, passing anything
// unrecognized through as text.
func FormatBoolean(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case string:
		if v == "" {
			return ""
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "y", "yes", "true", "1":
			return "Yes"
		case "n", "no", "false", "0":
			return "No"
		}
		return v
	default:
		return FormatBoolean(dataset.ValueString(v))
	}
}

// FormatDate renders dates as MM/DD/YYYY. Strings that cannot be parsed as
// a date pass through trimmed, so free-text values survive.
func FormatDate(value any) string {
	if value == nil {
		return ""
	}
	if t, ok := value.(time.Time); ok {
		return t.Format("01/02/2006")
	}
	if t, ok := dataset.ParseDate(value); ok {
		return t.Format("01/02/2006")
	}
	return dataset.ValueString(value)
}

// FormatValue dispatches on column membership, falling back to plain text.
func FormatValue(columnKey string, value any) string {
	switch {
	case DateFields[columnKey]:
		return FormatDate(value)
	case CurrencyFields[columnKey]:
		return FormatCurrency(value)
	case BooleanFields[columnKey]:
		return FormatBoolean(value)
	case value == nil:
		return ""
	default:
		return dataset.ValueString(value)
	}
}
