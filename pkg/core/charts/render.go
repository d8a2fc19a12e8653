package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// basePalette assigns colors to projects by sorted position, wrapping when
// there are more projects than colors.
var basePalette = []drawing.Color{
	drawing.ColorFromHex("66c2a5"),
	drawing.ColorFromHex("fc8d62"),
	drawing.ColorFromHex("b3b3b3"),
	drawing.ColorFromHex("fdbf6f"),
	drawing.ColorFromHex("8da0cb"),
	drawing.ColorFromHex("a6d854"),
	drawing.ColorFromHex("e78ac3"),
	drawing.ColorFromHex("e5c494"),
	drawing.ColorFromHex("1f78b4"),
	drawing.ColorFromHex("b2df8a"),
	drawing.ColorFromHex("fb9a99"),
	drawing.ColorFromHex("ffd92f"),
}

var fallbackColor = drawing.ColorFromHex("cccccc")

func paletteFor(projects []string) map[string]drawing.Color {
	palette := make(map[string]drawing.Color, len(projects))
	for i, project := range projects {
		palette[project] = basePalette[i%len(basePalette)]
	}
	return palette
}

func colorFor(palette map[string]drawing.Color, project string) drawing.Color {
	if color, ok := palette[project]; ok {
		return color
	}
	return fallbackColor
}

type chartDef struct {
	title  string
	slices []Slice
	kind   string
}

// Render writes one PNG per non-empty aggregate into dir and returns the
// file paths in cover-page order. Aggregates that sum to zero are skipped,
// so an all-empty summary produces no files and no directory.
func Render(dir string, summary Summary) ([]string, error) {
	defs := []chartDef{
		{"YTD Sales by Project", summary.YTDSales, "donut"},
		{"YTD Closed by Project", summary.YTDClosed, "donut"},
		{"Total Closed by Project", summary.TotalClosed, "donut"},
		{"Backlog by Project", summary.Backlog, "donut"},
		{"Inventory by Project", summary.Inventory, "bar"},
	}
	palette := paletteFor(summary.Projects)

	var paths []string
	for idx, def := range defs {
		if sliceTotal(def.slices) == 0 {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("creating chart directory: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("chart_%d.png", idx))
		var err error
		if def.kind == "bar" {
			err = renderBar(path, def.title, def.slices, palette)
		} else {
			err = renderDonut(path, def.title, def.slices, palette)
		}
		if err != nil {
			return paths, fmt.Errorf("rendering %s: %w", def.title, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func sliceTotal(slices []Slice) int {
	total := 0
	for _, s := range slices {
		total += s.Count
	}
	return total
}

func renderDonut(path, title string, slices []Slice, palette map[string]drawing.Color) error {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%d)", s.Project, s.Count),
			Style: chart.Style{FillColor: colorFor(palette, s.Project)},
		})
	}
	donut := chart.DonutChart{
		Title:  title,
		Width:  480,
		Height: 480,
		Values: values,
	}
	return writePNG(path, func(w io.Writer) error { return donut.Render(chart.PNG, w) })
}

func renderBar(path, title string, slices []Slice, palette map[string]drawing.Color) error {
	// Ascending by count so the tallest bar lands on the right edge.
	bars := make([]chart.Value, 0, len(slices))
	for i := len(slices) - 1; i >= 0; i-- {
		s := slices[i]
		bars = append(bars, chart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%d)", s.Project, s.Count),
			Style: chart.Style{FillColor: colorFor(palette, s.Project)},
		})
	}
	bar := chart.BarChart{
		Title:      title,
		Width:      840,
		Height:     640,
		BarWidth:   60,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: 123},
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}
	return writePNG(path, func(w io.Writer) error { return bar.Render(chart.PNG, w) })
}

func writePNG(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Cleanup deletes rendered chart files and, when it is empty afterwards,
// their directory.
func Cleanup(dir string, paths []string) {
	for _, path := range paths {
		os.Remove(path)
	}
	if dir != "" {
		os.Remove(dir)
	}
}
