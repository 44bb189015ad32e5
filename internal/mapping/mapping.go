// Package mapping resolves semantic field names to raw source-column names.
// The two source schemas use entirely different column vocabularies for the
// same concepts (SITEADDR vs PROP_ADD), so every attribute read goes through
// this table. Absence is data, not an error: lookups fall back to a default.
package mapping

import (
	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Columns is the per-region mapping from category/field to raw column name.
// An empty string means the region's schema has no such column.
type Columns struct {
	Assessment struct {
		Total       string
		Land        string
		Improvement string
	}
	Building struct {
		Area string
		Year string
	}
	Owner struct {
		Name   string
		Name2  string
		Tenure string
		State  string
	}
	Address struct {
		Full          string
		Number        string
		StreetPrimary string
		Zip           string
		Municipality  string
	}
	ParcelID      string
	PropertyClass string
}

var tables = map[parcel.Region]Columns{
	parcel.RegionCity:   cityColumns(),
	parcel.RegionCounty: countyColumns(),
}

func cityColumns() Columns {
	var c Columns
	c.Assessment.Total = "ASMTTOTAL"
	c.Assessment.Land = "ASMTLAND"
	c.Assessment.Improvement = "ASMTIMPROV"
	c.Building.Area = "BDG1AREA"
	c.Building.Year = "BDG1YEAR"
	c.Owner.Name = "OWNERNAME"
	c.Owner.Name2 = "OWNERNAME2"
	c.Address.Number = "LowAddrNum"
	c.Address.StreetPrimary = "SITEADDR"
	c.Address.Zip = "ZIP"
	c.ParcelID = "HANDLE"
	c.PropertyClass = "ASRCLASS1"
	return c
}

func countyColumns() Columns {
	var c Columns
	c.Assessment.Total = "TOTAPVAL"
	c.Assessment.Land = "LAND_VAL"
	c.Assessment.Improvement = "IMPROV_VAL"
	c.Building.Area = "RESQFT"
	c.Building.Year = "YEAR_BUILT"
	c.Owner.Name = "OWNER_NAME"
	c.Owner.Tenure = "TENURE"
	c.Owner.State = "OWN_STATE"
	c.Address.Full = "PROP_ADD"
	c.Address.Number = "PROP_ADRNU"
	c.Address.Zip = "PROP_ZIP"
	c.Address.Municipality = "MUNICIPALI"
	c.ParcelID = "LOCATOR"
	c.PropertyClass = "PROPCLASS"
	return c
}

// For returns the column table for a region. Unknown regions get a zero
// table, which makes every lookup fall through to its default.
func For(region parcel.Region) Columns {
	return tables[region]
}

// Field reads the raw column mapped by column from row, returning def when
// the mapping or the row key is absent.
func Field(row map[string]string, column, def string) string {
	if column == "" {
		return def
	}
	v, ok := row[column]
	if !ok || v == "" {
		return def
	}
	return v
}
