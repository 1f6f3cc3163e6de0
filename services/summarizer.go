package services

import (
	"math"
	"sort"

	"housing-explorer/models"
	"housing-explorer/utils"
)

// Summarizer computes descriptive statistics over any view of the table.
type Summarizer struct {
	logger *utils.Logger
}

// NewSummarizer creates a Summarizer with the given logger.
func NewSummarizer(logger *utils.Logger) *Summarizer {
	return &Summarizer{logger: logger}
}

// Summarize partitions the view's columns by kind and summarises each one.
// Every column lands in exactly one of the two tables, in column order.
func (s *Summarizer) Summarize(view models.View) models.SummaryReport {
	report := models.SummaryReport{
		Rows:        view.Len(),
		Numeric:     []models.NumericSummary{},
		Categorical: []models.CategoricalSummary{},
	}

	for i, c := range view.Columns() {
		if c.Kind == models.KindNumeric {
			report.Numeric = append(report.Numeric, numericSummary(view, i, c.Name))
		} else {
			report.Categorical = append(report.Categorical, categoricalSummary(view, i, c.Name))
		}
	}

	s.logger.Debug("[summary] Summarised %d rows: %d numeric, %d categorical columns",
		report.Rows, len(report.Numeric), len(report.Categorical))
	return report
}

// ValueCounts returns the frequency of each present value of a column, most
// frequent first; ties keep first-occurrence order. An unknown column yields
// nil.
func (s *Summarizer) ValueCounts(view models.View, column string) []models.ValueCount {
	col, ok := view.ColumnIndex(column)
	if !ok {
		s.logger.Warn("[summary] Ignoring value counts for unknown column %q", column)
		return nil
	}
	return valueCounts(view, col)
}

func valueCounts(view models.View, col int) []models.ValueCount {
	index := make(map[string]int)
	var counts []models.ValueCount
	for i := 0; i < view.Len(); i++ {
		v := view.Value(i, col)
		if models.IsMissing(v) {
			continue
		}
		if at, ok := index[v]; ok {
			counts[at].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, models.ValueCount{Value: v, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

func numericSummary(view models.View, col int, name string) models.NumericSummary {
	values := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if f, ok := models.ParseNumber(view.Value(i, col)); ok {
			values = append(values, f)
		}
	}

	sum := models.NumericSummary{
		Column: name,
		Count:  len(values),
	}
	if len(values) == 0 {
		return sum
	}

	var total float64
	for _, v := range values {
		total += v
	}
	mean := total / float64(len(values))
	sum.Mean = models.Defined(mean)

	// Sample standard deviation; undefined for a single value.
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		sum.Std = models.Defined(math.Sqrt(sq / float64(len(values)-1)))
	}

	sort.Float64s(values)
	sum.Min = models.Defined(values[0])
	sum.P25 = models.Defined(quantile(values, 0.25))
	sum.P50 = models.Defined(quantile(values, 0.50))
	sum.P75 = models.Defined(quantile(values, 0.75))
	sum.Max = models.Defined(values[len(values)-1])
	return sum
}

func categoricalSummary(view models.View, col int, name string) models.CategoricalSummary {
	counts := valueCounts(view, col)

	sum := models.CategoricalSummary{Column: name}
	for _, c := range counts {
		sum.Count += c.Count
	}
	if sum.Count == 0 {
		return sum
	}

	top := counts[0].Value
	sum.Unique = models.Defined(float64(len(counts)))
	sum.Top = &top
	sum.Freq = models.Defined(float64(counts[0].Count))
	return sum
}

// quantile interpolates linearly between the closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
