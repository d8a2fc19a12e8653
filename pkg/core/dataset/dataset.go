// Package dataset provides the in-memory tabular model shared by the
// ingestion, merge, and report stages. A Table is an ordered set of named
// columns plus loosely-typed rows; cells hold nil, string, int64, float64,
// bool, time.Time, or decimal.Decimal values.
package dataset

import (
	"time"
)

// Record is one row of a Table, keyed by column name.
type Record = map[string]any

// Table is an ordered-column, row-oriented dataset.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Append adds one row. Keys not present in Columns stay invisible until a
// later EnsureColumns or Project introduces them.
func (t *Table) Append(rec Record) {
	t.Rows = append(t.Rows, rec)
}

// Clone returns a deep copy of the table. Nested cell values (slices, maps)
// are shared; the merge pipeline never mutates nested structures in place.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns...)
	out.Rows = make([]Record, 0, len(t.Rows))
	for _, rec := range t.Rows {
		cp := make(Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// HasColumn reports whether the column is part of the table's schema.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumns adds any missing required columns with nil cells and returns
// the names that were missing. Missing columns are never fatal; callers log
// the returned set and continue with null-filled fields.
func (t *Table) EnsureColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
			t.Columns = append(t.Columns, col)
		}
	}
	return missing
}

// Project returns a new table restricted and reordered to the given columns.
// Columns absent from the source are included with nil cells.
func (t *Table) Project(columns []string) *Table {
	out := NewTable(columns...)
	out.Rows = make([]Record, 0, len(t.Rows))
	for _, rec := range t.Rows {
		projected := make(Record, len(columns))
		for _, col := range columns {
			projected[col] = rec[col]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}

// Concat appends the other table's rows after this table's rows. The result
// carries the union of both column orders, first-seen order preserved.
func (t *Table) Concat(other *Table) *Table {
	out := NewTable(t.Columns...)
	for _, col := range other.Columns {
		if !out.HasColumn(col) {
			out.Columns = append(out.Columns, col)
		}
	}
	out.Rows = make([]Record, 0, len(t.Rows)+len(other.Rows))
	out.Rows = append(out.Rows, t.Rows...)
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// DedupLast drops earlier rows that share a key with a later row, keeping the
// last occurrence at its original position.
func (t *Table) DedupLast(keyFn func(Record) string) *Table {
	seen := make(map[string]bool, len(t.Rows))
	kept := make([]Record, 0, len(t.Rows))
	for i := len(t.Rows) - 1; i >= 0; i-- {
		key := keyFn(t.Rows[i])
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, t.Rows[i])
	}
	out := NewTable(t.Columns...)
	out.Rows = make([]Record, len(kept))
	for i, rec := range kept {
		out.Rows[len(kept)-1-i] = rec
	}
	return out
}

// CoerceDates parses each named column leniently and stores the result as a
// UTC-midnight time.Time. Unparseable or empty cells become nil.
func (t *Table) CoerceDates(columns []string) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			continue
		}
		for _, rec := range t.Rows {
			v, present := rec[col]
			if !present || v == nil {
				continue
			}
			parsed, ok := ParseDate(v)
			if !ok {
				rec[col] = nil
				continue
			}
			rec[col] = Midnight(parsed)
		}
	}
}

// Midnight truncates an instant to 00:00 UTC of its calendar day.
func Midnight(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}
