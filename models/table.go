package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a column for descriptive statistics.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "categorical"
}

// MarshalText renders the kind by name in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column describes one column of a table.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// View is read-only, indexed access to a table or a row subset of one.
// Filtering and summarising work on views; nothing ever writes through one.
type View interface {
	Len() int
	Columns() []Column
	ColumnIndex(name string) (int, bool)
	Value(row, col int) string
}

// Table is the in-memory listing table. Its column set is fixed at
// construction and rows are never modified afterwards.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]string
}

// NewTable creates a table. The table takes ownership of rows; every row must
// have one value per column.
func NewTable(columns []Column, rows [][]string) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name] = i
	}
	return &Table{columns: columns, index: index, rows: rows}
}

func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

func (t *Table) Value(row, col int) string {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.columns) {
		return ""
	}
	return t.rows[row][col]
}

// SubView is a row subset of a parent view. It holds parent indices only.
type SubView struct {
	parent  View
	indices []int
}

// NewSubView returns a view over the given parent rows. A SubView parent is
// collapsed so chains of filters stay one level deep.
func NewSubView(parent View, indices []int) *SubView {
	if sv, ok := parent.(*SubView); ok {
		mapped := make([]int, len(indices))
		for i, idx := range indices {
			mapped[i] = sv.indices[idx]
		}
		return &SubView{parent: sv.parent, indices: mapped}
	}
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Columns() []Column { return v.parent.Columns() }

func (v *SubView) ColumnIndex(name string) (int, bool) { return v.parent.ColumnIndex(name) }

func (v *SubView) Value(row, col int) string {
	if row < 0 || row >= len(v.indices) {
		return ""
	}
	return v.parent.Value(v.indices[row], col)
}

// Row copies one row of a view out as a slice.
func Row(v View, i int) []string {
	n := len(v.Columns())
	out := make([]string, n)
	for c := 0; c < n; c++ {
		out[c] = v.Value(i, c)
	}
	return out
}

// ColumnValue returns the named column's value for a row, or false if the
// column does not exist.
func ColumnValue(v View, row int, name string) (string, bool) {
	c, ok := v.ColumnIndex(name)
	if !ok {
		return "", false
	}
	return v.Value(row, c), true
}

// naValues mirrors the tokens tabular tooling conventionally reads as missing.
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(s string) bool {
	_, ok := naValues[s]
	return ok
}

// TablePage is a render-ready slice of a view: the header plus at most Limit
// rows, and the total row count of the view it came from.
type TablePage struct {
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated"`
}

// Page copies up to limit rows out of a view. A limit <= 0 copies every row.
func Page(v View, limit int) TablePage {
	cols := v.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	n := v.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row(v, i))
	}

	return TablePage{
		Columns:   names,
		Rows:      rows,
		Total:     v.Len(),
		Truncated: n < v.Len(),
	}
}

// Caption describes how much of the view a page shows.
func (p TablePage) Caption() string {
	if p.Truncated {
		return fmt.Sprintf("Showing %d of %d rows", len(p.Rows), p.Total)
	}
	return fmt.Sprintf("%d rows", p.Total)
}

// ParseNumber parses a numeric cell. Missing cells are not numbers.
func ParseNumber(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
