package services

import (
	"io"
	"testing"

	"housing-explorer/models"
	"housing-explorer/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWithWriter(io.Discard, utils.LevelError) }

// scenarioTable is the three-row City/Furnishing table with a numeric Rent.
func scenarioTable() *models.Table {
	cols := []models.Column{
		{Name: models.ColCity, Kind: models.KindCategorical},
		{Name: models.ColFurnishingStatus, Kind: models.KindCategorical},
		{Name: models.ColRent, Kind: models.KindNumeric},
	}
	return models.NewTable(cols, [][]string{
		{"Mumbai", "Furnished", "30000"},
		{"Delhi", "Unfurnished", "12000"},
		{"Mumbai", "Unfurnished", "25000"},
	})
}

func rowsOf(v models.View) [][]string {
	out := make([][]string, v.Len())
	for i := range out {
		out[i] = models.Row(v, i)
	}
	return out
}

func newTestExplorer(t *testing.T, rowLimit int) *Explorer {
	t.Helper()
	logger := newTestLogger()
	return NewExplorer(NewDatasetCache(logger), "testdata/housing_data.csv", rowLimit, logger)
}
