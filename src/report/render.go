package report

import (
	"github.com/eshtab/traffic-delay-2022-analysis/src/processor"
)

// Output says where the artifacts of one build go. An empty Workbook skips
// the xlsx workbook.
type Output struct {
	ChartDir string
	Workbook string
	Manifest string
}

// RenderAll draws every chart as PNG (and into the workbook when enabled),
// fills m.Charts in report order and writes the manifest last, so a manifest
// on disk always points at complete images.
func RenderAll(charts []processor.Chart, out Output, m *Manifest) error {
	plots := NewPlotRenderer(out.ChartDir)
	var book *WorkbookRenderer
	if out.Workbook != "" {
		book = NewWorkbookRenderer(out.Workbook)
		defer book.Close()
	}

	m.Charts = make([]ManifestEntry, 0, len(charts))
	for i, c := range charts {
		image, err := plots.Render(c)
		if err != nil {
			return err
		}
		entry := ManifestEntry{
			Order:   i + 1,
			ID:      c.ID,
			Title:   c.Title,
			Caption: c.Caption,
			Kind:    c.Kind.String(),
			Image:   relativeTo(out.Manifest, image),
		}
		if book != nil {
			if entry.Sheet, err = book.Render(c); err != nil {
				return err
			}
		}
		m.Charts = append(m.Charts, entry)
	}

	if book != nil {
		if err := book.Save(); err != nil {
			return err
		}
		m.Workbook = relativeTo(out.Manifest, out.Workbook)
	}
	return m.Write(out.Manifest)
}
