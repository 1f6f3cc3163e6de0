package services

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"housing-explorer/models"
	"housing-explorer/utils"
)

// Cleaner turns table rows into typed, validated Listings for storage.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean converts every row of view into a Listing. Rows whose BHK, Rent,
// Size or Bathroom do not parse, or whose City is empty, are dropped.
func (c *Cleaner) Clean(view models.View) []*models.Listing {
	result := make([]*models.Listing, 0, view.Len())
	now := time.Now()

	for i := 0; i < view.Len(); i++ {
		get := func(name string) string {
			v, _ := models.ColumnValue(view, i, name)
			return v
		}

		bhk, okBHK := parseCount(get(models.ColBHK))
		rent, okRent := parseAmount(get(models.ColRent))
		size, okSize := parseAmount(get(models.ColSize))
		bath, okBath := parseCount(get(models.ColBathroom))
		city := normaliseText(get(models.ColCity))

		if !okBHK || !okRent || !okSize || !okBath || city == "" {
			c.logger.Debug("[cleaner] Dropping row %d: BHK=%q Rent=%q Size=%q Bathroom=%q City=%q",
				i+1, get(models.ColBHK), get(models.ColRent), get(models.ColSize), get(models.ColBathroom), city)
			continue
		}

		result = append(result, &models.Listing{
			BHK:              bhk,
			Rent:             rent,
			Size:             size,
			Floor:            normaliseText(get(models.ColFloor)),
			AreaType:         normaliseText(get(models.ColAreaType)),
			AreaLocality:     normaliseText(get(models.ColAreaLocality)),
			City:             city,
			FurnishingStatus: normaliseText(get(models.ColFurnishingStatus)),
			TenantPreferred:  normaliseText(get(models.ColTenantPreferred)),
			Bathroom:         bath,
			PointOfContact:   normaliseText(get(models.ColPointOfContact)),
			CreatedAt:        now,
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		view.Len(), len(result), view.Len()-len(result))
	return result
}

// parseAmount reads a non-negative number, tolerating thousands separators
// such as "1,200".
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if models.IsMissing(cleaned) {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// parseCount reads a non-negative whole number; "2.0" is accepted as 2.
func parseCount(raw string) (int, bool) {
	f, ok := parseAmount(raw)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
