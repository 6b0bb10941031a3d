package report

import (
	"archive/zip"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eshtab/traffic-delay-2022-analysis/src/processor"
)

// countCharts counts the chart parts stored in an xlsx archive.
func countCharts(t *testing.T, path string) int {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	n := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/charts/chart") && strings.HasSuffix(f.Name, ".xml") {
			n++
		}
	}
	return n
}

func TestWorkbookRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "charts.xlsx")
	w := NewWorkbookRenderer(path)
	defer w.Close()

	charts := testCharts()
	for _, c := range charts {
		sheet, err := w.Render(c)
		require.NoError(t, err)
		assert.Equal(t, c.ID, sheet)
	}
	require.NoError(t, w.Save())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		processor.ChartTotalDelays,
		processor.ChartIncidentFrequency,
		processor.ChartIncidentDayCount,
	}, f.GetSheetList())

	rows, err := f.GetRows(processor.ChartIncidentFrequency)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Incident", "Number of delays"},
		{"Mechanical", "2"},
		{"Diversion", "1"},
	}, rows)

	rows, err = f.GetRows(processor.ChartIncidentDayCount)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"Day", "Mechanical", "Diversion"}, rows[0])
	assert.Equal(t, []string{"Sunday", "0", "1"}, rows[7])

	// one chart per plain sheet, one per facet
	assert.Equal(t, 4, countCharts(t, path))
}

func TestWorkbookRendererSheetNameLimit(t *testing.T) {
	w := NewWorkbookRenderer(filepath.Join(t.TempDir(), "charts.xlsx"))
	defer w.Close()

	c := testCharts()[1]
	c.ID = strings.Repeat("x", 40)
	sheet, err := w.Render(c)
	require.NoError(t, err)
	assert.Len(t, sheet, maxSheetName)
}

func TestWorkbookRendererEmptyGroup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.xlsx")
	w := NewWorkbookRenderer(path)
	defer w.Close()

	_, err := w.Render(processor.Chart{
		ID: "empty", Title: "Nothing", XLabel: "Incident", YLabel: "Number of delays",
		Kind: processor.Bars,
	})
	require.NoError(t, err)
	require.NoError(t, w.Save())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("empty")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Incident", "Number of delays"}}, rows)
}
