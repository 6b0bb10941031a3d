package processor

import (
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshtab/traffic-delay-2022-analysis/src/datasource/file"
	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/storage"
)

type rawRow struct {
	date, time, day, incident, minDelay string
}

// rawFrame builds a loaded table: every raw column, all strings.
func rawFrame(rows ...rawRow) dataframe.DataFrame {
	cols := make(map[string][]string, len(models.RawColumns))
	for _, name := range models.RawColumns {
		cols[name] = make([]string, 0, len(rows))
	}
	for i, r := range rows {
		cols[models.ColDate] = append(cols[models.ColDate], r.date)
		cols[models.ColRoute] = append(cols[models.ColRoute], "36")
		cols[models.ColTime] = append(cols[models.ColTime], r.time)
		cols[models.ColDay] = append(cols[models.ColDay], r.day)
		cols[models.ColLocation] = append(cols[models.ColLocation], "FINCH STATION")
		cols[models.ColIncident] = append(cols[models.ColIncident], r.incident)
		cols[models.ColMinDelay] = append(cols[models.ColMinDelay], r.minDelay)
		cols[models.ColMinGap] = append(cols[models.ColMinGap], "20")
		cols[models.ColDirection] = append(cols[models.ColDirection], "W")
		cols[models.ColVehicle] = append(cols[models.ColVehicle], string(rune('A'+i%26)))
	}
	list := make([]series.Series, 0, len(models.RawColumns))
	for _, name := range models.RawColumns {
		list = append(list, series.New(cols[name], series.String, name))
	}
	return dataframe.New(list...)
}

func scenarioFrame() dataframe.DataFrame {
	return rawFrame(
		rawRow{"2022-07-14", "08:00", "Thursday", "Mechanical", "130"},
		rawRow{"2022-07-15", "06:30", "Friday", "Mechanical", "10"},
		rawRow{"2022-07-17", "23:15", "Sunday", "Diversion", "45"},
	)
}

func sampleFrame() dataframe.DataFrame {
	return rawFrame(
		rawRow{"2022-01-03", "06:00", "Monday", "Mechanical", "12"},
		rawRow{"2022-01-03", "06:00", "monday", "Operations - Operator", "0"},
		rawRow{"2022-02-05", "07:30", " Saturday ", "Collision - TTC", "120"},
		rawRow{"2022-02-06", "07:30", "SUNDAY", "Diversion", "121"},
		rawRow{"2022-02-06", "07:30", "Sunday", "Diversion", "-3"},
		rawRow{"2022-03-09", "17:45", "Wednesday", "Mechanical", ""},
		rawRow{"2022-03-10", "17:45", "Thursday", "Security", "7.5"},
		rawRow{"2022-12-01", "23:59", "Thursday", "Mechanical", "999"},
	)
}

func TestCleanScenario(t *testing.T) {
	cleaned, stats, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(scenarioFrame())
	require.NoError(t, err)

	assert.Equal(t, models.CleanColumns, cleaned.Names())
	assert.Equal(t, 2, cleaned.Nrow())
	assert.Equal(t, CleanStats{Input: 3, Output: 2, OutOfRange: 1}, stats)

	summary, err := Summarize(cleaned)
	require.NoError(t, err)
	assert.Equal(t, 55.0, summary.DelayMinutes)

	byIncident, err := GroupBy(cleaned, models.ColIncident, Count)
	require.NoError(t, err)
	assert.Equal(t, 1.0, byIncident.Value("Mechanical"))
}

func TestCleanInvariants(t *testing.T) {
	raw := sampleFrame()
	cleaned, stats, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(raw)
	require.NoError(t, err)

	// range invariant
	for _, v := range cleaned.Col(models.ColMinDelay).Float() {
		assert.True(t, v >= 0 && v <= models.DefaultMaxDelay, "min_delay %v", v)
	}
	// category invariant, canonical spelling
	for _, d := range cleaned.Col(models.ColDay).Records() {
		assert.Contains(t, models.WeekdayNames(), d)
	}
	assert.Equal(t, []string{"Monday", "Monday", "Saturday", "Thursday"},
		cleaned.Col(models.ColDay).Records())

	// count conservation: 121, -3, blank and 999 are dropped
	assert.Equal(t, raw.Nrow(), stats.Input)
	assert.Equal(t, 4, stats.OutOfRange)
	assert.Equal(t, raw.Nrow()-stats.OutOfRange, cleaned.Nrow())

	// the input is untouched
	assert.Equal(t, models.RawColumns, raw.Names())
	assert.Equal(t, "monday", raw.Col(models.ColDay).Records()[1])
}

func TestCleanIsIdempotent(t *testing.T) {
	c := NewCleaner(models.DefaultMaxDelay, nil)
	once, _, err := c.Clean(sampleFrame())
	require.NoError(t, err)

	twice, stats, err := c.Clean(once)
	require.NoError(t, err)

	assert.Equal(t, once.Records(), twice.Records())
	assert.Equal(t, once.Types(), twice.Types())
	assert.Zero(t, stats.OutOfRange)
}

func TestCleanMaxDelay(t *testing.T) {
	cleaned, stats, err := NewCleaner(30, nil).Clean(scenarioFrame())
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.Nrow())
	assert.Equal(t, 2, stats.OutOfRange)
}

func TestCleanRejectsUnknownDay(t *testing.T) {
	raw := rawFrame(
		rawRow{"2022-07-15", "06:30", "Friday", "Mechanical", "10"},
		rawRow{"2022-07-16", "06:30", "Caturday", "Mechanical", "10"},
	)
	_, _, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(raw)
	require.ErrorIs(t, err, models.ErrCategory)
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), "Caturday")
}

func TestCleanMissingColumn(t *testing.T) {
	_, _, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(scenarioFrame().Drop(models.ColIncident))
	assert.ErrorIs(t, err, models.ErrSchema)
}

func TestCleanHeaderOnly(t *testing.T) {
	cleaned, stats, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(rawFrame())
	require.NoError(t, err)
	assert.Equal(t, 0, cleaned.Nrow())
	assert.Equal(t, models.CleanColumns, cleaned.Names())
	assert.Equal(t, CleanStats{}, stats)
}

func TestCleanedSnapshotRoundTrip(t *testing.T) {
	c := NewCleaner(models.DefaultMaxDelay, nil)
	cleaned, _, err := c.Clean(sampleFrame())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "clean.csv")
	require.NoError(t, storage.WriteCSV(cleaned, path))

	reloaded, err := file.Load(path, file.Options{})
	require.NoError(t, err)
	assert.Equal(t, models.CleanColumns, reloaded.Names())

	// the reload holds strings; only the delay column needs a type
	for _, name := range []string{models.ColDate, models.ColTime, models.ColDay, models.ColIncident} {
		assert.Equal(t, cleaned.Col(name).Records(), reloaded.Col(name).Records(), name)
	}
	assert.Equal(t, cleaned.Col(models.ColMinDelay).Float(), floatsOf(reloaded.Col(models.ColMinDelay)))
}
