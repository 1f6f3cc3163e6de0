package services

import (
	"sort"

	"housing-explorer/models"
	"housing-explorer/utils"
)

// FilterEngine restricts a view to the rows accepted by a predicate set.
type FilterEngine struct {
	logger *utils.Logger
}

// NewFilterEngine creates a FilterEngine with the given logger.
func NewFilterEngine(logger *utils.Logger) *FilterEngine {
	return &FilterEngine{logger: logger}
}

type constraint struct {
	col      int
	accepted map[string]struct{}
}

// Apply returns the rows of view that satisfy every active constraint in
// preds: AND across columns, OR across the values of one column. Columns
// with no accepted values impose nothing, and columns the view does not
// have are ignored. The input view is never modified; when no constraint is
// active the view itself is returned.
func (f *FilterEngine) Apply(view models.View, preds models.PredicateSet) models.View {
	names := make([]string, 0, len(preds))
	for name := range preds {
		names = append(names, name)
	}
	sort.Strings(names)

	constraints := make([]constraint, 0, len(names))
	for _, name := range names {
		values := preds[name]
		if len(values) == 0 {
			continue
		}
		col, ok := view.ColumnIndex(name)
		if !ok {
			f.logger.Warn("[filter] Ignoring constraint on unknown column %q", name)
			continue
		}
		accepted := make(map[string]struct{}, len(values))
		for _, v := range values {
			accepted[v] = struct{}{}
		}
		constraints = append(constraints, constraint{col: col, accepted: accepted})
	}

	if len(constraints) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if matchesAll(view, i, constraints) {
			indices = append(indices, i)
		}
	}

	f.logger.Debug("[filter] %d of %d rows matched %d constraint(s)", len(indices), n, len(constraints))
	return models.NewSubView(view, indices)
}

func matchesAll(view models.View, row int, constraints []constraint) bool {
	for _, c := range constraints {
		if _, ok := c.accepted[view.Value(row, c.col)]; !ok {
			return false
		}
	}
	return true
}

// Distinct returns the present values of a column in first-occurrence order.
// An unknown column yields nil.
func Distinct(view models.View, column string) []string {
	col, ok := view.ColumnIndex(column)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for i := 0; i < view.Len(); i++ {
		v := view.Value(i, col)
		if models.IsMissing(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
