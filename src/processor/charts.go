package processor

import (
	"github.com/go-gota/gota/dataframe"

	"github.com/eshtab/traffic-delay-2022-analysis/src/config"
	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

// ChartKind tells the renderers how to draw a chart's data.
type ChartKind int

const (
	Scalar  ChartKind = iota // a single bar holding one total
	Bars                     // one bar per group label
	Faceted                  // one bar panel per facet
)

func (k ChartKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Bars:
		return "bars"
	case Faceted:
		return "faceted"
	default:
		return "unknown"
	}
}

// Chart is one figure of the report: the aggregate plus its labels.
// Group is set for Scalar and Bars charts, Faceted for Faceted charts.
type Chart struct {
	ID      string
	Title   string
	Caption string
	XLabel  string
	YLabel  string
	Kind    ChartKind
	Group   Group
	Faceted FacetedGroup
}

// Chart ids in report order.
const (
	ChartTotalDelays        = "total-delays"
	ChartTotalMinutes       = "total-delay-minutes"
	ChartIncidentFrequency  = "frequency-by-incident"
	ChartIncidentSeverity   = "severity-by-incident"
	ChartMonthFrequency     = "frequency-by-month"
	ChartDayFrequency       = "frequency-by-day"
	ChartTimeFrequency      = "frequency-by-time"
	ChartMonthSeverity      = "severity-by-month"
	ChartIncidentDayCount   = "frequency-by-incident-and-day"
	ChartIncidentDayMinutes = "severity-by-incident-and-day"
)

const (
	labelDelays  = "Number of delays"
	labelMinutes = "Delay (minutes)"
)

// BuildCharts computes every report aggregate from a cleaned table and
// returns the charts in report order. Captions can be overridden by chart id
// in dcfg; a nil dcfg uses the default allow-lists.
func BuildCharts(df dataframe.DataFrame, dcfg *config.DataConfig) ([]Chart, error) {
	if dcfg == nil {
		dcfg = config.DefaultData()
	}

	df, err := AddDateParts(df)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(df)
	if err != nil {
		return nil, err
	}

	charts := []Chart{
		scalarChart(ChartTotalDelays, "Total delays", labelDelays, float64(summary.Delays),
			dcfg.Caption(ChartTotalDelays, "Total number of bus delays recorded in the year")),
		scalarChart(ChartTotalMinutes, "Total delay minutes", labelMinutes, summary.DelayMinutes,
			dcfg.Caption(ChartTotalMinutes, "Total minutes of bus delay recorded in the year")),
	}

	bars := []struct {
		id, title, xlabel, caption string
		measure                    Measure
		group                      func(dataframe.DataFrame, Measure) (Group, error)
	}{
		{ChartIncidentFrequency, "Delays by incident", "Incident",
			"Number of delays per incident type", Count, byColumn(models.ColIncident)},
		{ChartIncidentSeverity, "Delay minutes by incident", "Incident",
			"Minutes of delay per incident type", Sum, byColumn(models.ColIncident)},
		{ChartMonthFrequency, "Delays by month", "Month",
			"Number of delays per month", Count, GroupByMonth},
		{ChartDayFrequency, "Delays by day of the week", "Day",
			"Number of delays per day of the week", Count, GroupByDay},
		{ChartTimeFrequency, "Delays by time of day", "Time",
			"Number of delays per reported time of day", Count, byColumn(models.ColTime)},
		{ChartMonthSeverity, "Delay minutes by month", "Month",
			"Minutes of delay per month", Sum, GroupByMonth},
	}
	for _, b := range bars {
		g, err := b.group(df, b.measure)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{
			ID:      b.id,
			Title:   b.title,
			Caption: dcfg.Caption(b.id, b.caption),
			XLabel:  b.xlabel,
			YLabel:  yLabel(b.measure),
			Kind:    Bars,
			Group:   g,
		})
	}

	facets := []struct {
		id, title, caption string
		allow              []string
		measure            Measure
	}{
		{ChartIncidentDayCount, "Delays by day for the most frequent incidents",
			"Number of delays per day of the week for the three most frequent incident types",
			dcfg.FrequencyIncidents, Count},
		{ChartIncidentDayMinutes, "Delay minutes by day for the most severe incidents",
			"Minutes of delay per day of the week for the three incident types with the most delay minutes",
			dcfg.SeverityIncidents, Sum},
	}
	for _, f := range facets {
		fg, err := FacetByDay(df, models.ColIncident, f.allow, f.measure)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{
			ID:      f.id,
			Title:   f.title,
			Caption: dcfg.Caption(f.id, f.caption),
			XLabel:  "Day",
			YLabel:  yLabel(f.measure),
			Kind:    Faceted,
			Faceted: fg,
		})
	}

	return charts, nil
}

func byColumn(col string) func(dataframe.DataFrame, Measure) (Group, error) {
	return func(df dataframe.DataFrame, m Measure) (Group, error) {
		return GroupBy(df, col, m)
	}
}

func scalarChart(id, title, ylabel string, value float64, caption string) Chart {
	return Chart{
		ID:      id,
		Title:   title,
		Caption: caption,
		YLabel:  ylabel,
		Kind:    Scalar,
		Group:   Group{Labels: []string{title}, Values: []float64{value}},
	}
}

func yLabel(m Measure) string {
	if m == Sum {
		return labelMinutes
	}
	return labelDelays
}
