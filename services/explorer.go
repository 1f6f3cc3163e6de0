package services

import (
	"housing-explorer/models"
	"housing-explorer/utils"
)

// Explorer answers one dashboard interaction: it loads the cached table and
// runs filter and summary passes for the current selections.
type Explorer struct {
	cache      *DatasetCache
	path       string
	rowLimit   int
	filter     *FilterEngine
	summarizer *Summarizer
	logger     *utils.Logger
}

// NewExplorer creates an Explorer over the dataset at path. rowLimit caps the
// rows copied into the rendered tables; statistics always use every row.
func NewExplorer(cache *DatasetCache, path string, rowLimit int, logger *utils.Logger) *Explorer {
	return &Explorer{
		cache:      cache,
		path:       path,
		rowLimit:   rowLimit,
		filter:     NewFilterEngine(logger),
		summarizer: NewSummarizer(logger),
		logger:     logger,
	}
}

// Path is the dataset file the explorer reads.
func (e *Explorer) Path() string { return e.path }

// Explore builds the full render-ready report for one request.
//
// The City/Furnishing multi-selection drives the filtered table, its summary
// and the charts. The single selected city is applied to the full table on
// its own; it never narrows, and is never narrowed by, the multi-selection.
func (e *Explorer) Explore(req models.DashboardRequest) (*models.DashboardReport, error) {
	table, err := e.cache.Load(e.path)
	if err != nil {
		return nil, err
	}

	cities := Distinct(table, models.ColCity)
	report := &models.DashboardReport{
		CityOptions:       nonNil(cities),
		FurnishingOptions: nonNil(Distinct(table, models.ColFurnishingStatus)),
		Dataset:           models.Page(table, e.rowLimit),
	}

	filtered := e.filter.Apply(table, req.Predicates())
	report.Filtered = models.Page(filtered, e.rowLimit)

	if req.ShowSummary {
		summary := e.summarizer.Summarize(filtered)
		report.FilteredSummary = &summary
	}
	if req.ShowCharts {
		report.CityCounts = nonNilCounts(e.summarizer.ValueCounts(filtered, models.ColCity))
		report.FurnishingCounts = nonNilCounts(e.summarizer.ValueCounts(filtered, models.ColFurnishingStatus))
	}

	report.Overall = e.summarizer.Summarize(table)

	if req.SelectedCity == "" && len(cities) > 0 {
		req.SelectedCity = cities[0]
	}
	report.CityReport = e.summarizer.Summarize(e.CityView(table, req.SelectedCity))
	report.Request = req

	e.logger.Debug("[explorer] cities=%v furnishing=%v selected=%q → %d of %d rows",
		req.Cities, req.Furnishing, req.SelectedCity, filtered.Len(), table.Len())
	return report, nil
}

// Filtered returns the rows selected by the request's multi-selection.
func (e *Explorer) Filtered(req models.DashboardRequest) (models.View, error) {
	table, err := e.cache.Load(e.path)
	if err != nil {
		return nil, err
	}
	return e.filter.Apply(table, req.Predicates()), nil
}

// Summary summarises the full table.
func (e *Explorer) Summary() (models.SummaryReport, error) {
	table, err := e.cache.Load(e.path)
	if err != nil {
		return models.SummaryReport{}, err
	}
	return e.summarizer.Summarize(table), nil
}

// CityView returns the rows of view whose City equals city. An empty city
// selects nothing.
func (e *Explorer) CityView(view models.View, city string) models.View {
	if city == "" {
		return models.NewSubView(view, nil)
	}
	return e.filter.Apply(view, models.PredicateSet{models.ColCity: {city}})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCounts(c []models.ValueCount) []models.ValueCount {
	if c == nil {
		return []models.ValueCount{}
	}
	return c
}
