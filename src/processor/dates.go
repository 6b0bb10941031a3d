package processor

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/utils"
)

// SplitDate splits "yyyy-mm-dd" on its two dashes. No calendar validation is
// done; anything without exactly two dashes is an ErrFormat.
func SplitDate(s string) (year, month, day string, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("%w: date %q is not year-month-day", models.ErrFormat, s)
	}
	return parts[0], parts[1], parts[2], nil
}

// AddDateParts returns a copy of df with month and day_num columns taken
// from date. The year is constant across the dataset and is not kept.
func AddDateParts(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	dates := df.Col(models.ColDate)
	if dates.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no %s column", models.ErrSchema, models.ColDate)
	}

	raw := dates.Records()
	months := make([]string, len(raw))
	dayNums := make([]string, len(raw))
	for i, d := range raw {
		_, month, day, err := SplitDate(d)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("row %d: %w", utils.LineNumber(i), err)
		}
		months[i] = month
		dayNums[i] = day
	}

	out := df.Mutate(series.New(months, series.String, models.ColMonth))
	out = out.Mutate(series.New(dayNums, series.String, models.ColDayNum))
	if out.Err != nil {
		return dataframe.DataFrame{}, out.Err
	}
	return out, nil
}
