package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAll(t *testing.T) {
	root := t.TempDir()
	out := Output{
		ChartDir: filepath.Join(root, "report", "charts"),
		Workbook: filepath.Join(root, "report", "charts.xlsx"),
		Manifest: filepath.Join(root, "report", "manifest.json"),
	}
	m := &Manifest{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:      "ttc-bus-delay-data-2022.csv",
		Rows:        3,
	}

	charts := testCharts()
	require.NoError(t, RenderAll(charts, out, m))

	got, err := ReadManifest(out.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, m.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, "charts.xlsx", got.Workbook)

	require.Len(t, got.Charts, len(charts))
	for i, entry := range got.Charts {
		assert.Equal(t, i+1, entry.Order)
		assert.Equal(t, charts[i].ID, entry.ID)
		assert.Equal(t, charts[i].Caption, entry.Caption)
		assert.Equal(t, charts[i].Kind.String(), entry.Kind)
		assert.Equal(t, "charts/"+charts[i].ID+".png", entry.Image)
		assert.Equal(t, charts[i].ID, entry.Sheet)
		assertPNG(t, filepath.Join(filepath.Dir(out.Manifest), entry.Image))
	}
	assert.FileExists(t, out.Workbook)
}

func TestRenderAllWithoutWorkbook(t *testing.T) {
	root := t.TempDir()
	out := Output{
		ChartDir: filepath.Join(root, "charts"),
		Manifest: filepath.Join(root, "manifest.json"),
	}
	m := &Manifest{RunID: "run-2"}
	require.NoError(t, RenderAll(testCharts(), out, m))

	got, err := ReadManifest(out.Manifest)
	require.NoError(t, err)
	assert.Empty(t, got.Workbook)
	for _, entry := range got.Charts {
		assert.Empty(t, entry.Sheet)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".xlsx", filepath.Ext(e.Name()))
	}
}

func TestReadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadManifest(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadManifest(bad)
	assert.Error(t, err)
}
