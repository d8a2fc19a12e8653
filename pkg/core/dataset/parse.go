package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts tried in order by ParseDate. Go's parser also accepts a fractional
// second after the seconds field even when the layout omits it, so these
// cover the microsecond-bearing exports too.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"1-2-2006",
	"2006/1/2",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// Spreadsheet serial dates count days from this epoch.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate leniently parses a cell into an instant. Strings are tried
// against the known layouts, numbers are treated as spreadsheet serial dates,
// and time.Time values pass through. The boolean result replaces exceptions
// for unparseable input; callers null-coalesce on false.
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		text := strings.TrimSpace(val)
		if text == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if strings.Contains(layout, "Z07") {
				if ts, err := time.Parse(layout, text); err == nil {
					return ts.UTC(), true
				}
				continue
			}
			if ts, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case float64:
		return fromSerial(val)
	case int:
		return fromSerial(float64(val))
	case int64:
		return fromSerial(float64(val))
	case decimal.Decimal:
		f, _ := val.Float64()
		return fromSerial(f)
	default:
		return time.Time{}, false
	}
}

func fromSerial(serial float64) (time.Time, bool) {
	if !isFinite(serial) || serial < 1 || serial > 200000 {
		return time.Time{}, false
	}
	days := math.Trunc(serial)
	frac := serial - days
	ts := excelEpoch.AddDate(0, 0, int(days))
	if frac > 0 {
		ts = ts.Add(time.Duration(frac * float64(24*time.Hour)))
	}
	return ts, true
}

// ParseNumber leniently parses a cell into a float64. Strings tolerate
// currency symbols and thousands separators.
func ParseNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		if !isFinite(val) {
			return 0, false
		}
		return val, true
	case decimal.Decimal:
		f, _ := val.Float64()
		return f, true
	case string:
		text := strings.TrimSpace(val)
		text = strings.ReplaceAll(text, "$", "")
		text = strings.ReplaceAll(text, ",", "")
		if text == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || !isFinite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ParseInt parses a cell as an integer. Integer-valued floats qualify;
// fractional values and non-integer strings do not.
func ParseInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case float64:
		if !isFinite(val) || math.Trunc(val) != val {
			return 0, false
		}
		return int64(val), true
	case decimal.Decimal:
		if !val.IsInteger() {
			return 0, false
		}
		return val.IntPart(), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ConvertDecimal rewrites decimal cells as int64 when the value is whole and
// float64 otherwise, recursing through nested lists and mappings. Other
// values pass through untouched.
func ConvertDecimal(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		if val.IsInteger() {
			return val.IntPart()
		}
		f, _ := val.Float64()
		return f
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ConvertDecimal(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ConvertDecimal(item)
		}
		return out
	default:
		return v
	}
}

// ValueString renders a cell as trimmed text. Integer-valued floats collapse
// to plain digits so numeric and textual unit numbers collide on merge keys.
func ValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		if !isFinite(val) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case decimal.Decimal:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// CellString returns the trimmed text form of one cell.
func CellString(rec Record, col string) string {
	return ValueString(rec[col])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
