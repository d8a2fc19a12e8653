package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/fox-dr/hbfa-ops-erp/pkg/core/dataset"
)

// The page is a custom 11x17 sheet in landscape.
const (
	pageShortEdge = 279.4
	pageLongEdge  = 431.8
	leftMargin    = 10.0
	rightMargin   = 10.0
	topMargin     = 12.0
	bottomMargin  = 12.0
	lineHeight    = 4.2
	logoHeight    = 16.0
)

// Layout carries the presentation settings for one report run.
type Layout struct {
	Columns  []ColumnConfig
	Title    string
	Subtitle string
	LogoPath string
}

type pdfWriter struct {
	pdf         *fpdf.Fpdf
	layout      Layout
	breakAt     float64
	tableHeader bool
}

// WritePDF renders the cover page with its chart grid, the row table and
// the status legend into outputPath, creating parent directories as needed.
func WritePDF(rows []dataset.Record, outputPath string, layout Layout, chartImages []string) error {
	if len(layout.Columns) == 0 {
		layout.Columns = TableColumns
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: pageShortEdge, Ht: pageLongEdge},
	})
	w := &pdfWriter{pdf: pdf, layout: layout, breakAt: pageShortEdge - bottomMargin}
	pdf.SetMargins(leftMargin, topMargin, rightMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.SetHeaderFunc(w.header)

	w.tableHeader = false
	pdf.AddPage()
	w.drawCoverPage(chartImages)

	w.tableHeader = true
	pdf.AddPage()
	for _, rec := range rows {
		w.drawRow(rec)
	}
	w.drawLegend()

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// header runs on every page: logo, title and subtitle, then the column
// header row on table pages.
func (w *pdfWriter) header() {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "B", 16)
	x := leftMargin
	if w.layout.LogoPath != "" {
		pdf.Image(w.layout.LogoPath, leftMargin, 10, 0, logoHeight, false, "", 0, "")
		x += 22
	}
	pdf.SetXY(x, 10)
	pdf.CellFormat(0, 6, w.layout.Title, "", 0, "", false, 0, "")
	pdf.Ln(6)
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, w.layout.Subtitle, "", 0, "", false, 0, "")

	bottom := 10.0
	if w.layout.LogoPath != "" {
		bottom += logoHeight
	}
	if w.tableHeader {
		pdf.SetY(math.Max(pdf.GetY(), bottom) + 2)
		w.drawHeaderRow()
	} else {
		pdf.SetY(bottom + 6)
	}
}

func (w *pdfWriter) drawHeaderRow() {
	pdf := w.pdf
	headerY := pdf.GetY()
	x := leftMargin
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range w.layout.Columns {
		pdf.SetXY(x, headerY)
		pdf.MultiCell(col.Width, 4, col.Header, "1", "C", true)
		x += col.Width
	}
	pdf.SetXY(leftMargin, headerY+8)
}

// cellLines estimates how many wrapped lines MultiCell will need so row
// heights can be computed before drawing.
func (w *pdfWriter) cellLines(text string, width float64) int {
	if text == "" {
		return 1
	}
	available := math.Max(width-1, 1)
	total := 0
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			total++
			continue
		}
		lines := int(math.Ceil(w.pdf.GetStringWidth(paragraph) / available))
		if lines < 1 {
			lines = 1
		}
		total += lines
	}
	return total
}

func (w *pdfWriter) drawRow(rec dataset.Record) {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "", 7)
	formatted := make([]string, len(w.layout.Columns))
	maxLines := 1
	for i, col := range w.layout.Columns {
		text := FormatValue(col.Key, rec[col.Key])
		formatted[i] = text
		if n := w.cellLines(text, col.Width); n > maxLines {
			maxLines = n
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	if pdf.GetY()+rowHeight > w.breakAt {
		pdf.AddPage()
	}

	status := 0
	if num, ok := dataset.ParseNumber(rec["StatusNumeric"]); ok {
		status = int(num)
	}
	color, fill := HighlightColors[status]
	if fill {
		pdf.SetFillColor(color.R, color.G, color.B)
	}

	x, y := leftMargin, pdf.GetY()
	for i, col := range w.layout.Columns {
		pdf.SetXY(x, y)
		pdf.MultiCell(col.Width, lineHeight, formatted[i], "1", col.Align, fill)
		x += col.Width
	}
	pdf.SetXY(leftMargin, y+rowHeight)
}

// drawLegend prints the status color key under the last table row.
func (w *pdfWriter) drawLegend() {
	pdf := w.pdf
	needed := float64(len(StatusLegend))*5 + 10
	if pdf.GetY()+needed > w.breakAt {
		w.tableHeader = false
		pdf.AddPage()
		w.tableHeader = true
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(0, 5, "Status Key", "", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	for _, entry := range StatusLegend {
		x, y := leftMargin, pdf.GetY()
		if color, fill := HighlightColors[entry.Status]; fill {
			pdf.SetFillColor(color.R, color.G, color.B)
			pdf.Rect(x, y+0.5, 6, 4, "DF")
		} else {
			pdf.Rect(x, y+0.5, 6, 4, "D")
		}
		pdf.SetXY(x+8, y)
		pdf.CellFormat(60, 5, entry.Label, "", 1, "", false, 0, "")
	}
}

// drawCoverPage lays chart images out in a grid of up to four columns.
// Missing image files are skipped.
func (w *pdfWriter) drawCoverPage(chartImages []string) {
	pdf := w.pdf
	images := make([]string, 0, len(chartImages))
	for _, img := range chartImages {
		if _, err := os.Stat(img); err == nil {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return
	}
	startY := pdf.GetY() + 6
	available := pageLongEdge - leftMargin - rightMargin
	columns := len(images)
	if columns > 4 {
		columns = 4
	}
	gapX := 14.0
	width := math.Min(85.0, (available-gapX*float64(columns-1))/float64(columns))
	chartHeight := width * 0.65
	legendOffset := 48.0
	rowHeight := chartHeight + legendOffset
	for i, img := range images {
		row, col := i/columns, i%columns
		x := leftMargin + float64(col)*(width+gapX)
		y := startY + float64(row)*rowHeight
		pdf.Image(img, x, y, width, 0, false, "", 0, "")
	}
	totalRows := (len(images) + columns - 1) / columns
	pdf.SetY(startY + float64(totalRows)*rowHeight + 12)
}
