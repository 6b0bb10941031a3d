package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshtab/traffic-delay-2022-analysis/src/config"
	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

var reportOrder = []string{
	ChartTotalDelays, ChartTotalMinutes,
	ChartIncidentFrequency, ChartIncidentSeverity,
	ChartMonthFrequency, ChartDayFrequency, ChartTimeFrequency, ChartMonthSeverity,
	ChartIncidentDayCount, ChartIncidentDayMinutes,
}

func chartIDs(charts []Chart) []string {
	ids := make([]string, len(charts))
	for i, c := range charts {
		ids[i] = c.ID
	}
	return ids
}

func TestBuildCharts(t *testing.T) {
	cleaned, _, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(scenarioFrame())
	require.NoError(t, err)

	dcfg := config.DefaultData()
	dcfg.Captions = map[string]string{ChartDayFrequency: "Delays by weekday, 2022"}

	charts, err := BuildCharts(cleaned, dcfg)
	require.NoError(t, err)
	require.Equal(t, reportOrder, chartIDs(charts))

	assert.Equal(t, Scalar, charts[0].Kind)
	assert.Equal(t, []float64{2}, charts[0].Group.Values)
	assert.Equal(t, []float64{55}, charts[1].Group.Values)

	assert.Equal(t, Bars, charts[2].Kind)
	assert.Equal(t, []string{"Mechanical", "Diversion"}, charts[2].Group.Labels)

	day := charts[5]
	assert.Equal(t, "Delays by weekday, 2022", day.Caption)
	assert.Equal(t, models.WeekdayNames(), day.Group.Labels)
	assert.Equal(t, []float64{0, 0, 0, 0, 1, 0, 1}, day.Group.Values)

	frequency := charts[8]
	assert.Equal(t, Faceted, frequency.Kind)
	assert.Equal(t, dcfg.FrequencyIncidents, frequency.Faceted.Facets)
	severity := charts[9]
	assert.Equal(t, dcfg.SeverityIncidents, severity.Faceted.Facets)
	diversion, ok := severity.Faceted.Facet("Diversion")
	require.True(t, ok)
	assert.Equal(t, 45.0, diversion.Value("Sunday"))

	for _, c := range charts {
		assert.NotEmpty(t, c.Title, c.ID)
		assert.NotEmpty(t, c.Caption, c.ID)
		assert.NotEmpty(t, c.YLabel, c.ID)
	}
	assert.Equal(t, labelMinutes, charts[3].YLabel)
	assert.Equal(t, labelDelays, charts[4].YLabel)
}

func TestBuildChartsEmptyTable(t *testing.T) {
	cleaned, _, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(rawFrame())
	require.NoError(t, err)

	charts, err := BuildCharts(cleaned, nil)
	require.NoError(t, err)
	require.Equal(t, reportOrder, chartIDs(charts))

	assert.Equal(t, []float64{0}, charts[0].Group.Values)
	assert.Equal(t, []float64{0}, charts[1].Group.Values)
	assert.Zero(t, charts[2].Group.Len())
	assert.Equal(t, 7, charts[5].Group.Len())
	assert.Zero(t, charts[5].Group.Total())
	assert.Len(t, charts[8].Faceted.Groups, 3)
}

func TestBuildChartsBadDate(t *testing.T) {
	raw := rawFrame(rawRow{"July 15", "06:30", "Friday", "Mechanical", "10"})
	cleaned, _, err := NewCleaner(models.DefaultMaxDelay, nil).Clean(raw)
	require.NoError(t, err)

	_, err = BuildCharts(cleaned, nil)
	assert.ErrorIs(t, err, models.ErrFormat)
}
