package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

func cleanedFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{"2022-07-15", "2022-07-17"}, series.String, models.ColDate),
		series.New([]string{"06:30", "23:15"}, series.String, models.ColTime),
		series.New([]string{"Friday", "Sunday"}, series.String, models.ColDay),
		series.New([]string{"Mechanical", "Diversion, Detour"}, series.String, models.ColIncident),
		series.New([]float64{10, 12.5}, series.Float, models.ColMinDelay),
		// not part of the snapshot
		series.New([]string{"07", "07"}, series.String, models.ColMonth),
	)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean", "ttc-bus-delay-data-2022-clean.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteCSV(cleanedFrame(), path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,time,day,incident,min_delay\n"+
		"2022-07-15,06:30,Friday,Mechanical,10\n"+
		"2022-07-17,23:15,Sunday,\"Diversion, Detour\",12.5\n", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteCSVEmptyTable(t *testing.T) {
	df := dataframe.New(
		series.New([]string{}, series.String, models.ColDate),
		series.New([]string{}, series.String, models.ColTime),
		series.New([]string{}, series.String, models.ColDay),
		series.New([]string{}, series.String, models.ColIncident),
		series.New([]float64{}, series.Float, models.ColMinDelay),
	)
	path := filepath.Join(t.TempDir(), "empty.csv")

	require.NoError(t, WriteCSV(df, path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,time,day,incident,min_delay\n", string(got))
}

func TestWriteCSVMissingColumn(t *testing.T) {
	df := cleanedFrame().Drop(models.ColIncident)
	path := filepath.Join(t.TempDir(), "out.csv")

	err := WriteCSV(df, path)
	assert.ErrorIs(t, err, models.ErrSchema)
	assert.NoFileExists(t, path)
}

func TestSaveToExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.xlsx")
	require.NoError(t, SaveToExcel(cleanedFrame(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SnapshotSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.CleanColumns, rows[0])
	assert.Equal(t, []string{"2022-07-17", "23:15", "Sunday", "Diversion, Detour", "12.5"}, rows[2])
}
