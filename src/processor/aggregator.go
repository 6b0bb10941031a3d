package processor

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/floats"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
	"github.com/eshtab/traffic-delay-2022-analysis/src/utils"
)

// Measure is what an aggregate adds up per group.
type Measure int

const (
	Count Measure = iota // number of delays
	Sum                  // minutes of delay
)

func (m Measure) String() string {
	switch m {
	case Count:
		return "count"
	case Sum:
		return "sum"
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// Summary holds the two scalar aggregates of a cleaned table.
type Summary struct {
	Delays       int
	DelayMinutes float64
}

// Group is a one-level aggregate. Labels keep the order the grouping
// defines; values are never sorted.
type Group struct {
	By      string
	Measure Measure
	Labels  []string
	Values  []float64
}

func (g Group) Len() int { return len(g.Labels) }

// Value returns the aggregate for label, 0 when the label is absent.
func (g Group) Value(label string) float64 {
	for i, l := range g.Labels {
		if l == label {
			return g.Values[i]
		}
	}
	return 0
}

func (g Group) Total() float64 { return floats.Sum(g.Values) }

// FacetedGroup is a two-level aggregate: one Group per facet value.
type FacetedGroup struct {
	FacetBy string
	Measure Measure
	Facets  []string
	Groups  []Group
}

// Facet returns the group for one facet value.
func (f FacetedGroup) Facet(name string) (Group, bool) {
	for i, n := range f.Facets {
		if n == name {
			return f.Groups[i], true
		}
	}
	return Group{}, false
}

// Summarize counts delays and totals their minutes.
func Summarize(df dataframe.DataFrame) (Summary, error) {
	delays, err := delayValues(df)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Delays: len(delays), DelayMinutes: floats.Sum(delays)}, nil
}

// GroupBy aggregates df by col with groups in order of first appearance.
func GroupBy(df dataframe.DataFrame, col string, measure Measure) (Group, error) {
	keys, weights, err := keyedWeights(df, col, measure)
	if err != nil {
		return Group{}, err
	}

	g := Group{By: col, Measure: measure}
	index := make(map[string]int)
	for i, k := range keys {
		pos, ok := index[k]
		if !ok {
			pos = len(g.Labels)
			index[k] = pos
			g.Labels = append(g.Labels, k)
			g.Values = append(g.Values, 0)
		}
		g.Values[pos] += weights[i]
	}
	return g, nil
}

// GroupByDay aggregates by week-day. All seven days are present, Monday to
// Sunday, with 0 for days without delays.
func GroupByDay(df dataframe.DataFrame, measure Measure) (Group, error) {
	keys, weights, err := keyedWeights(df, models.ColDay, measure)
	if err != nil {
		return Group{}, err
	}

	values := make([]float64, len(models.Weekdays()))
	for i, k := range keys {
		wd, err := models.ParseWeekday(k)
		if err != nil {
			return Group{}, fmt.Errorf("row %d: %w", utils.LineNumber(i), err)
		}
		values[wd] += weights[i]
	}
	return Group{By: models.ColDay, Measure: measure, Labels: models.WeekdayNames(), Values: values}, nil
}

// GroupByMonth aggregates by the two-digit month, in numeric month order.
// The month column is derived from date when df does not carry it yet.
func GroupByMonth(df dataframe.DataFrame, measure Measure) (Group, error) {
	if !utils.HasColumn(df, models.ColMonth) {
		var err error
		if df, err = AddDateParts(df); err != nil {
			return Group{}, err
		}
	}

	g, err := GroupBy(df, models.ColMonth, measure)
	if err != nil {
		return Group{}, err
	}

	order := make([]int, g.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return monthLess(g.Labels[order[a]], g.Labels[order[b]])
	})

	sorted := Group{By: g.By, Measure: g.Measure, Labels: make([]string, g.Len()), Values: make([]float64, g.Len())}
	for i, j := range order {
		sorted.Labels[i] = g.Labels[j]
		sorted.Values[i] = g.Values[j]
	}
	return sorted, nil
}

func monthLess(a, b string) bool {
	ma, errA := strconv.Atoi(a)
	mb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return ma < mb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// FacetByDay restricts df to the allow-listed values of facetCol and
// aggregates each by week-day. Facets follow allow's order and a value with
// no rows still gets a zero-filled group.
func FacetByDay(df dataframe.DataFrame, facetCol string, allow []string, measure Measure) (FacetedGroup, error) {
	facets, _, err := keyedWeights(df, facetCol, Count)
	if err != nil {
		return FacetedGroup{}, err
	}
	days, weights, err := keyedWeights(df, models.ColDay, measure)
	if err != nil {
		return FacetedGroup{}, err
	}

	fg := FacetedGroup{FacetBy: facetCol, Measure: measure, Facets: make([]string, len(allow)), Groups: make([]Group, len(allow))}
	index := make(map[string]int, len(allow))
	for i, name := range allow {
		fg.Facets[i] = name
		fg.Groups[i] = Group{
			By:      models.ColDay,
			Measure: measure,
			Labels:  models.WeekdayNames(),
			Values:  make([]float64, len(models.Weekdays())),
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	for row, facet := range facets {
		pos, ok := index[facet]
		if !ok {
			continue
		}
		wd, err := models.ParseWeekday(days[row])
		if err != nil {
			return FacetedGroup{}, fmt.Errorf("row %d: %w", utils.LineNumber(row), err)
		}
		fg.Groups[pos].Values[wd] += weights[row]
	}
	return fg, nil
}

// keyedWeights returns the col cells and, per row, 1 for Count or the
// min_delay value for Sum.
func keyedWeights(df dataframe.DataFrame, col string, measure Measure) ([]string, []float64, error) {
	if df.Err != nil {
		return nil, nil, df.Err
	}
	keyCol := df.Col(col)
	if keyCol.Err != nil {
		return nil, nil, fmt.Errorf("%w: no %s column", models.ErrSchema, col)
	}
	keys := keyCol.Records()

	switch measure {
	case Count:
		weights := make([]float64, len(keys))
		for i := range weights {
			weights[i] = 1
		}
		return keys, weights, nil
	case Sum:
		delays, err := delayValues(df)
		if err != nil {
			return nil, nil, err
		}
		return keys, delays, nil
	default:
		return nil, nil, fmt.Errorf("unknown measure %v", measure)
	}
}

func delayValues(df dataframe.DataFrame) ([]float64, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	col := df.Col(models.ColMinDelay)
	if col.Err != nil {
		return nil, fmt.Errorf("%w: no %s column", models.ErrSchema, models.ColMinDelay)
	}
	return floatsOf(col), nil
}
