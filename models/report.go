package models

import (
	"encoding/json"
	"math"
	"strconv"
)

// Stat is a computed statistic that may be undefined, for example the mean
// of a column with no values. Undefined stats encode as JSON null.
type Stat struct {
	Value float64
	Valid bool
}

// Defined wraps a computed value.
func Defined(v float64) Stat { return Stat{Value: v, Valid: true} }

// Undefined is the statistic of an empty column.
var Undefined = Stat{}

// String prints two decimals, or four significant digits for non-zero
// values below one so that small deviations do not read as zero.
func (s Stat) String() string {
	if !s.Valid {
		return "NaN"
	}
	if s.Value != 0 && math.Abs(s.Value) < 1 {
		return strconv.FormatFloat(s.Value, 'g', 4, 64)
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// CountString prints an integral stat such as unique or freq without
// decimals.
func (s Stat) CountString() string {
	if !s.Valid {
		return s.String()
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// NumericSummary holds the descriptive statistics of a numeric column.
type NumericSummary struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Stat   `json:"mean"`
	Std    Stat   `json:"std"`
	Min    Stat   `json:"min"`
	P25    Stat   `json:"p25"`
	P50    Stat   `json:"p50"`
	P75    Stat   `json:"p75"`
	Max    Stat   `json:"max"`
}

// CategoricalSummary holds the descriptive statistics of a categorical column.
// Top is nil when the column has no values.
type CategoricalSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Unique Stat    `json:"unique"`
	Top    *string `json:"top"`
	Freq   Stat    `json:"freq"`
}

// TopValue renders Top, or "NaN" when undefined.
func (c CategoricalSummary) TopValue() string {
	if c.Top == nil {
		return "NaN"
	}
	return *c.Top
}

// SummaryReport is the pair of numeric and categorical statistics tables
// computed over one view.
type SummaryReport struct {
	Rows        int                  `json:"rows"`
	Numeric     []NumericSummary     `json:"numeric"`
	Categorical []CategoricalSummary `json:"categorical"`
}

// ValueCount is the frequency of one distinct value in a column.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PredicateSet maps a column name to its accepted values. A column that is
// absent or maps to an empty set imposes no constraint.
type PredicateSet map[string][]string

// DashboardRequest carries the selections of one dashboard interaction.
type DashboardRequest struct {
	Cities       []string `json:"cities"`
	Furnishing   []string `json:"furnishing"`
	SelectedCity string   `json:"selectedCity"`
	ShowSummary  bool     `json:"showSummary"`
	ShowCharts   bool     `json:"showCharts"`
}

// Predicates returns the explorer filter built from the multi-selections.
func (r DashboardRequest) Predicates() PredicateSet {
	return PredicateSet{
		ColCity:             r.Cities,
		ColFurnishingStatus: r.Furnishing,
	}
}

// DashboardReport is everything one dashboard render needs.
type DashboardReport struct {
	Request           DashboardRequest `json:"request"`
	CityOptions       []string         `json:"cityOptions"`
	FurnishingOptions []string         `json:"furnishingOptions"`

	Dataset          TablePage      `json:"dataset"`
	Filtered         TablePage      `json:"filtered"`
	FilteredSummary  *SummaryReport `json:"filteredSummary,omitempty"`
	CityCounts       []ValueCount   `json:"cityCounts,omitempty"`
	FurnishingCounts []ValueCount   `json:"furnishingCounts,omitempty"`

	Overall    SummaryReport `json:"overall"`
	CityReport SummaryReport `json:"cityReport"`
}
