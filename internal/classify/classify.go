// Package classify maps raw property-class codes to the shared 6-value
// taxonomy. The two regions use unrelated code vocabularies: the city
// assessor classes are single letters matched by prefix (A1, B2, ...), the
// county classes are letters or words matched exactly or by prefix.
package classify

import (
	"strings"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// cityPrefixes is ordered; the first matching prefix wins.
var cityPrefixes = []struct {
	prefix string
	typ    parcel.PropertyType
}{
	{"A", parcel.PropertyResidential}, // single family
	{"B", parcel.PropertyResidential}, // multi family
	{"C", parcel.PropertyCommercial},
	{"D", parcel.PropertyIndustrial},
	{"E", parcel.PropertyExempt}, // church, school, gov
	{"F", parcel.PropertyAgricultural},
	{"X", parcel.PropertyExempt},
}

var countyCodes = []struct {
	exact  string
	prefix string
	typ    parcel.PropertyType
}{
	{"R", "RES", parcel.PropertyResidential},
	{"C", "COM", parcel.PropertyCommercial},
	{"I", "IND", parcel.PropertyIndustrial},
	{"A", "AGR", parcel.PropertyAgricultural},
	{"E", "EX", parcel.PropertyExempt},
}

// Property classifies a raw property-class code for the given region.
// Missing codes classify as unknown, unmatched codes as other.
func Property(code string, region parcel.Region) parcel.PropertyType {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return parcel.PropertyUnknown
	}

	switch region {
	case parcel.RegionCity:
		for _, c := range cityPrefixes {
			if strings.HasPrefix(code, c.prefix) {
				return c.typ
			}
		}
		return parcel.PropertyOther
	case parcel.RegionCounty:
		for _, c := range countyCodes {
			if code == c.exact || strings.HasPrefix(code, c.prefix) {
				return c.typ
			}
		}
		return parcel.PropertyOther
	}

	return parcel.PropertyUnknown
}
