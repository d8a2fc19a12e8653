package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// LoadSheet reads one worksheet into a table. The first skipRows rows are
// discarded (Polaris exports carry a banner block above the grid), the next
// row is the header, and the remainder become string-valued cells. Cells
// right-trimmed away by the reader stay nil.
func LoadSheet(filePath, sheet string, skipRows int) (*dataset.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filePath, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	if skipRows < 0 {
		skipRows = 0
	}
	if skipRows >= len(rows) {
		return dataset.NewTable(), nil
	}

	header := rows[skipRows]
	type headerCol struct {
		name string
		idx  int
	}
	var cols []headerCol
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		cols = append(cols, headerCol{name: name, idx: i})
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	tbl := dataset.NewTable(names...)
	for _, row := range rows[skipRows+1:] {
		rec := make(dataset.Record, len(cols))
		empty := true
		for _, c := range cols {
			if c.idx >= len(row) {
				rec[c.name] = nil
				continue
			}
			cell := strings.TrimSpace(row[c.idx])
			if cell == "" {
				rec[c.name] = nil
				continue
			}
			rec[c.name] = cell
			empty = false
		}
		if empty {
			continue
		}
		tbl.Append(rec)
	}
	return tbl, nil
}
