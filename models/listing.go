package models

import (
	"strconv"
	"time"
)

// Column names of the rental listing dataset, exactly as they appear in the
// CSV header.
const (
	ColBHK              = "BHK"
	ColRent             = "Rent"
	ColSize             = "Size"
	ColFloor            = "Floor"
	ColAreaType         = "Area Type"
	ColAreaLocality     = "Area Locality"
	ColCity             = "City"
	ColFurnishingStatus = "Furnishing Status"
	ColTenantPreferred  = "Tenant Preferred"
	ColBathroom         = "Bathroom"
	ColPointOfContact   = "Point of Contact"
)

// ListingSchema declares the kind of every known listing column. Columns in
// a file that are not listed here have their kind inferred from the values.
var ListingSchema = []Column{
	{Name: ColBHK, Kind: KindNumeric},
	{Name: ColRent, Kind: KindNumeric},
	{Name: ColSize, Kind: KindNumeric},
	{Name: ColFloor, Kind: KindCategorical},
	{Name: ColAreaType, Kind: KindCategorical},
	{Name: ColAreaLocality, Kind: KindCategorical},
	{Name: ColCity, Kind: KindCategorical},
	{Name: ColFurnishingStatus, Kind: KindCategorical},
	{Name: ColTenantPreferred, Kind: KindCategorical},
	{Name: ColBathroom, Kind: KindNumeric},
	{Name: ColPointOfContact, Kind: KindCategorical},
}

// DeclaredKind returns the schema kind for a column name, if it is known.
func DeclaredKind(name string) (Kind, bool) {
	for _, c := range ListingSchema {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return KindCategorical, false
}

// Listing is a cleaned, typed rental record ready for PostgreSQL storage.
type Listing struct {
	ID               int64
	BHK              int
	Rent             float64
	Size             float64
	Floor            string
	AreaType         string
	AreaLocality     string
	City             string
	FurnishingStatus string
	TenantPreferred  string
	Bathroom         int
	PointOfContact   string
	CreatedAt        time.Time
}

// Record returns the listing as a row ordered like ListingSchema.
func (l *Listing) Record() []string {
	return []string{
		strconv.Itoa(l.BHK),
		strconv.FormatFloat(l.Rent, 'f', -1, 64),
		strconv.FormatFloat(l.Size, 'f', -1, 64),
		l.Floor,
		l.AreaType,
		l.AreaLocality,
		l.City,
		l.FurnishingStatus,
		l.TenantPreferred,
		strconv.Itoa(l.Bathroom),
		l.PointOfContact,
	}
}

// TableFromListings builds a Table with the listing schema from typed records.
func TableFromListings(listings []*Listing) *Table {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, l.Record())
	}
	cols := make([]Column, len(ListingSchema))
	copy(cols, ListingSchema)
	return NewTable(cols, rows)
}
