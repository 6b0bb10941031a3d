package processor

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/storage"
	"github.com/eshtab/traffic-delay-2022-analysis/src/utils"
)

// CleanStats counts rows through the cleaner.
type CleanStats struct {
	Input      int // rows loaded
	Output     int // rows kept
	OutOfRange int // min_delay missing, negative or above the limit
}

// Cleaner reduces a loaded delay table to the analysed columns and drops
// implausible delays.
type Cleaner struct {
	MaxDelay float64
	logger   *storage.Logger
}

// NewCleaner returns a Cleaner keeping delays in [0, maxDelay]. A nil logger
// discards the drop report.
func NewCleaner(maxDelay float64, logger *storage.Logger) *Cleaner {
	if logger == nil {
		logger = storage.NewNopLogger()
	}
	return &Cleaner{MaxDelay: maxDelay, logger: logger}
}

// Clean projects df to date, time, day, incident and min_delay, rewrites day
// with canonical week-day names and keeps rows with 0 <= min_delay <= MaxDelay.
// An unknown week-day fails the whole table with ErrCategory. df is not
// modified.
func (c *Cleaner) Clean(df dataframe.DataFrame) (dataframe.DataFrame, CleanStats, error) {
	stats := CleanStats{Input: df.Nrow()}
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, df.Err
	}
	if missing := utils.MissingColumns(df, models.CleanColumns); len(missing) > 0 {
		return dataframe.DataFrame{}, stats, fmt.Errorf("%w: cannot clean without column(s) %s",
			models.ErrSchema, strings.Join(missing, ", "))
	}

	out := df.Select(models.CleanColumns)

	days, err := canonicalDays(out.Col(models.ColDay))
	if err != nil {
		return dataframe.DataFrame{}, stats, err
	}
	out = out.Mutate(series.New(days, series.String, models.ColDay))
	out = out.Mutate(series.New(floatsOf(out.Col(models.ColMinDelay)), series.Float, models.ColMinDelay))

	if out.Nrow() > 0 {
		maxDelay := c.MaxDelay
		out = out.Filter(dataframe.F{
			Colname:    models.ColMinDelay,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				v := el.Float()
				// NaN fails both comparisons
				return v >= 0 && v <= maxDelay
			},
		})
	}
	if out.Err != nil {
		return dataframe.DataFrame{}, stats, out.Err
	}

	stats.Output = out.Nrow()
	stats.OutOfRange = stats.Input - stats.Output
	c.logger.WithFields(map[string]interface{}{
		"input":        stats.Input,
		"output":       stats.Output,
		"out_of_range": stats.OutOfRange,
		"max_delay":    c.MaxDelay,
	}).Info("cleaned delay records")
	if stats.OutOfRange > 0 {
		c.logger.Warningf("dropped %d row(s) with min_delay outside [0, %s]",
			stats.OutOfRange, utils.FormatFloat(c.MaxDelay))
	}
	return out, stats, nil
}

func canonicalDays(col series.Series) ([]string, error) {
	raw := col.Records()
	days := make([]string, len(raw))
	for i, v := range raw {
		wd, err := models.ParseWeekday(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", utils.LineNumber(i), err)
		}
		days[i] = wd.String()
	}
	return days, nil
}

// floatsOf reads a numeric column whatever its series type. Cells that do
// not parse become NaN.
func floatsOf(col series.Series) []float64 {
	if col.Type() == series.Float {
		return col.Float()
	}
	raw := col.Records()
	values := make([]float64, len(raw))
	for i, v := range raw {
		values[i] = utils.ParseFloat(v)
	}
	return values
}
