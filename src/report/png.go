package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/processor"
)

const (
	plotHeight   = 4 * vg.Inch
	plotMinWidth = 6 * vg.Inch
	plotMaxWidth = 24 * vg.Inch
	facetWidth   = 4 * vg.Inch
	barWidth     = vg.Length(14) // points
)

// PlotRenderer draws each chart as a PNG bar chart in Dir.
type PlotRenderer struct {
	Dir string
}

func NewPlotRenderer(dir string) *PlotRenderer {
	return &PlotRenderer{Dir: dir}
}

// Render writes <Dir>/<chart id>.png and returns its path. Empty aggregates
// give a chart with axes and no bars.
func (r *PlotRenderer) Render(c processor.Chart) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	path := filepath.Join(r.Dir, c.ID+".png")

	var err error
	switch c.Kind {
	case processor.Faceted:
		err = r.renderFacets(c, path)
	default:
		var p *plot.Plot
		if p, err = barPlot(c.Title, c.XLabel, c.YLabel, c.Group); err == nil {
			err = p.Save(plotWidth(c.Group.Len()), plotHeight, path)
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: render %s: %v", models.ErrIO, c.ID, err)
	}
	return path, nil
}

// renderFacets tiles one bar chart per facet side by side. Each facet keeps
// its own y scale.
func (r *PlotRenderer) renderFacets(c processor.Chart, path string) error {
	fg := c.Faceted
	if len(fg.Groups) == 0 {
		p, err := barPlot(c.Title, c.XLabel, c.YLabel, processor.Group{})
		if err != nil {
			return err
		}
		return p.Save(plotMinWidth, plotHeight, path)
	}

	row := make([]*plot.Plot, len(fg.Groups))
	for i, g := range fg.Groups {
		p, err := barPlot(fg.Facets[i], c.XLabel, c.YLabel, g)
		if err != nil {
			return err
		}
		row[i] = p
	}
	plots := [][]*plot.Plot{row}

	img := vgimg.New(facetWidth*vg.Length(len(row)), plotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(row),
		PadX: vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range row {
		row[j].Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func barPlot(title, xlabel, ylabel string, g processor.Group) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	// plotter rejects empty value sets
	if g.Len() == 0 {
		return p, nil
	}
	bars, err := plotter.NewBarChart(plotter.Values(g.Values), barWidth)
	if err != nil {
		return nil, err
	}
	p.Add(bars)
	p.NominalX(g.Labels...)
	p.Y.Min = 0
	return p, nil
}

func plotWidth(bars int) vg.Length {
	w := vg.Length(bars) * 0.3 * vg.Inch
	if w < plotMinWidth {
		return plotMinWidth
	}
	if w > plotMaxWidth {
		return plotMaxWidth
	}
	return w
}
