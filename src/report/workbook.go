package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/processor"
)

const (
	defaultSheet   = "Sheet1"
	maxSheetName   = 31
	chartRowStride = 16 // rows taken by one default-size chart
)

// WorkbookRenderer collects charts into one xlsx workbook: a sheet per chart
// holding the aggregate table and a native column chart of it.
type WorkbookRenderer struct {
	path string
	f    *excelize.File
	n    int
}

func NewWorkbookRenderer(path string) *WorkbookRenderer {
	return &WorkbookRenderer{path: path, f: excelize.NewFile()}
}

// Render adds c as a new sheet and returns the sheet name.
func (w *WorkbookRenderer) Render(c processor.Chart) (string, error) {
	sheet := c.ID
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		return "", fmt.Errorf("%w: sheet %s: %v", models.ErrIO, sheet, err)
	}

	var err error
	switch c.Kind {
	case processor.Faceted:
		err = w.writeFacets(sheet, c)
	default:
		err = w.writeGroup(sheet, c)
	}
	if err != nil {
		return "", fmt.Errorf("%w: sheet %s: %v", models.ErrIO, sheet, err)
	}
	w.n++
	return sheet, nil
}

func (w *WorkbookRenderer) writeGroup(sheet string, c processor.Chart) error {
	xlabel := c.XLabel
	if xlabel == "" {
		xlabel = "Total"
	}
	if err := w.f.SetSheetRow(sheet, "A1", &[]interface{}{xlabel, c.YLabel}); err != nil {
		return err
	}
	for i, label := range c.Group.Labels {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.f.SetSheetRow(sheet, cell, &[]interface{}{label, c.Group.Values[i]}); err != nil {
			return err
		}
	}

	last := lastDataRow(c.Group.Len())
	return w.f.AddChart(sheet, "D2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$B$1", sheet),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: c.Title}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.XLabel}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.YLabel}}},
	})
}

// writeFacets lays the facets out as columns next to the shared day column
// and stacks one chart per facet.
func (w *WorkbookRenderer) writeFacets(sheet string, c processor.Chart) error {
	fg := c.Faceted
	header := []interface{}{c.XLabel}
	for _, name := range fg.Facets {
		header = append(header, name)
	}
	if err := w.f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	labels := models.WeekdayNames()
	if len(fg.Groups) > 0 {
		labels = fg.Groups[0].Labels
	}
	for i, label := range labels {
		row := []interface{}{label}
		for _, g := range fg.Groups {
			row = append(row, g.Values[i])
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := w.f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last := lastDataRow(len(labels))
	anchorCol, _ := excelize.ColumnNumberToName(len(fg.Facets) + 3)
	for i, name := range fg.Facets {
		col, _ := excelize.ColumnNumberToName(i + 2)
		anchor := fmt.Sprintf("%s%d", anchorCol, 2+i*chartRowStride)
		err := w.f.AddChart(sheet, anchor, &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("'%s'!$%s$1", sheet, col),
				Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
				Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, last),
			}},
			Title:  []excelize.RichTextRun{{Text: name}},
			Legend: excelize.ChartLegend{Position: "none"},
			XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.XLabel}}},
			YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: c.YLabel}}},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// lastDataRow keeps chart ranges non-empty when a group has no rows.
func lastDataRow(n int) int {
	if n == 0 {
		return 2
	}
	return n + 1
}

// Save writes the workbook, replacing an existing file.
func (w *WorkbookRenderer) Save() error {
	if w.n > 0 {
		if err := w.f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("%w: %v", models.ErrIO, err)
		}
		w.f.SetActiveSheet(0)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("%w: save %s: %v", models.ErrIO, w.path, err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (w *WorkbookRenderer) Close() error { return w.f.Close() }
