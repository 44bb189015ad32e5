package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/parcel-pipeline/internal/address"
	"github.com/sells-group/parcel-pipeline/internal/anomaly"
	"github.com/sells-group/parcel-pipeline/internal/classify"
	"github.com/sells-group/parcel-pipeline/internal/geometry"
	"github.com/sells-group/parcel-pipeline/internal/mapping"
	"github.com/sells-group/parcel-pipeline/internal/metrics"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// assembler turns one raw attribute row plus its geometry result into a
// canonical record, reporting every data-quality finding on the way. A
// nil return means the row was dropped under the anomaly policy.
type assembler struct {
	region     parcel.Region
	cols       mapping.Columns
	defaults   address.Defaults
	anomalies  *anomaly.Logger
	sourceFile string
}

func newAssembler(region parcel.Region, defaults address.Defaults, anomalies *anomaly.Logger, sourceFile string) *assembler {
	return &assembler{
		region:     region,
		cols:       mapping.For(region),
		defaults:   defaults,
		anomalies:  anomalies,
		sourceFile: sourceFile,
	}
}

// missingValue reports sentinel strings that mean "no data" in the
// source exports.
func missingValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

func (a *assembler) assemble(attrs map[string]string, geo *geometry.Result, stats *parcel.Stats) *parcel.Record {
	parcelID := strings.TrimSpace(mapping.Field(attrs, a.cols.ParcelID, ""))
	if parcelID == "" {
		return nil
	}
	stats.MarkProcessed(a.region)

	rawStreet := a.rawStreet(attrs)
	if missingValue(rawStreet) {
		stats.MissingStreet++
		if a.anomalies.Observe(anomaly.MissingStreet, a.region, parcelID, rawStreet, "no street address in source row") == anomaly.Drop {
			return nil
		}
		return nil // nothing to standardize either way
	}

	if address.IsPOBox(rawStreet) {
		stats.POBox++
		if a.anomalies.Observe(anomaly.POBox, a.region, parcelID, rawStreet, "") == anomaly.Drop {
			return nil
		}
	} else if !address.HasHouseNumber(rawStreet) {
		stats.MissingNumber++
		if a.anomalies.Observe(anomaly.MissingNumber, a.region, parcelID, rawStreet, "street does not start with a house number") == anomaly.Drop {
			return nil
		}
	}
	if address.IsHyphenatedRange(rawStreet) {
		stats.HyphenatedRange++
		if a.anomalies.Observe(anomaly.HyphenatedRange, a.region, parcelID, rawStreet, "") == anomaly.Drop {
			return nil
		}
	}
	if address.IsFractional(rawStreet) {
		stats.FractionalAddress++
		if a.anomalies.Observe(anomaly.FractionalAddress, a.region, parcelID, rawStreet, "") == anomaly.Drop {
			return nil
		}
	}

	defaults := a.defaults
	if muni := mapping.Field(attrs, a.cols.Address.Municipality, ""); !missingValue(muni) {
		defaults.City = address.StandardizeCityName(muni)
	}

	rawZip := strings.TrimSuffix(strings.TrimSpace(mapping.Field(attrs, a.cols.Address.Zip, "")), ".0")
	if !missingValue(rawZip) && address.IsValidZip(rawZip) {
		defaults.Zip = strings.TrimSpace(rawZip)
	} else {
		// Absent zips count the same as malformed ones.
		stats.InvalidZip++
		if a.anomalies.Observe(anomaly.InvalidZip, a.region, parcelID, rawZip, "falling back to regional default") == anomaly.Drop {
			return nil
		}
	}

	addr, ok := address.Standardize(rawStreet, defaults)
	if !ok {
		stats.StandardizationFailure++
		if a.anomalies.Observe(anomaly.StandardizationFailure, a.region, parcelID, rawStreet, "") == anomaly.Drop {
			return nil
		}
		return nil
	}

	land := 0.0
	if geo != nil {
		land = geo.LandAreaSqft
	}

	total := metrics.ParseFloat(mapping.Field(attrs, a.cols.Assessment.Total, ""))
	landVal := metrics.ParseFloat(mapping.Field(attrs, a.cols.Assessment.Land, ""))
	improv := metrics.ParseFloat(mapping.Field(attrs, a.cols.Assessment.Improvement, ""))

	building := metrics.ParseFloat(mapping.Field(attrs, a.cols.Building.Area, ""))
	if building <= 0 && a.region == parcel.RegionCity {
		// City exports rarely carry a building area; estimate it from
		// the improvement assessment.
		building = metrics.EstimateBuildingSqft(improv, land)
	}
	year := metrics.ParseInt(mapping.Field(attrs, a.cols.Building.Year, ""))

	ptype := classify.Property(mapping.Field(attrs, a.cols.PropertyClass, ""), a.region)

	owner := parcel.Owner{
		Name:       strings.TrimSpace(mapping.Field(attrs, a.cols.Owner.Name, "")),
		Tenure:     strings.TrimSpace(mapping.Field(attrs, a.cols.Owner.Tenure, "")),
		OwnerState: strings.ToUpper(strings.TrimSpace(mapping.Field(attrs, a.cols.Owner.State, ""))),
	}
	if name2 := strings.TrimSpace(mapping.Field(attrs, a.cols.Owner.Name2, "")); name2 != "" {
		owner.Name = strings.TrimSpace(owner.Name + " & " + name2)
	}
	if len(owner.OwnerState) == 2 && owner.OwnerState != "MO" {
		stats.ForeignOwner++
		if a.anomalies.Observe(anomaly.ForeignOwner, a.region, parcelID, owner.OwnerState, "") == anomaly.Drop {
			return nil
		}
	}

	rec := &parcel.Record{
		ID:               fmt.Sprintf("%s_%s", a.region, parcelID),
		OriginalParcelID: parcelID,
		FullAddress:      addr.Render(),
		Region:           a.region,
		Calc: parcel.Calc{
			LandAreaSqft:                  land,
			BuildingSqft:                  building,
			EstimatedLandscapableAreaSqft: metrics.Landscapable(land, building, ptype),
			PropertyType:                  ptype,
			YearBuilt:                     year,
		},
		Assessment: parcel.Assessment{TotalValue: total, LandValue: landVal, ImprovementValue: improv},
		Owner:      owner,
		SourceFile: a.sourceFile,
	}
	if geo != nil {
		rec.Latitude = geo.Latitude
		rec.Longitude = geo.Longitude
		g := geo.Geometry
		rec.Geometry = &g
	}
	rec.AffluenceScore = metrics.Affluence(metrics.AffluenceInput{
		Assessment:   rec.Assessment,
		BuildingSqft: building,
		BuildingYear: year,
		LandAreaSqft: land,
		Owner:        owner,
		Region:       a.region,
	})

	stats.MarkValid(a.region)
	return rec
}

// rawStreet picks the street source per schema: the city export carries
// the full site address in one column, the county splits number and
// street into PROP_ADD.
func (a *assembler) rawStreet(attrs map[string]string) string {
	if a.cols.Address.Full != "" {
		return strings.TrimSpace(mapping.Field(attrs, a.cols.Address.Full, ""))
	}
	return strings.TrimSpace(mapping.Field(attrs, a.cols.Address.StreetPrimary, ""))
}
