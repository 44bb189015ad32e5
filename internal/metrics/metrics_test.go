package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

func TestLandscapable_Residential(t *testing.T) {
	// hardscape = 2000*0.25 + 300 = 800; 10000 - 2000 - 800 = 7200
	assert.Equal(t, 7200.0, Landscapable(10000, 2000, parcel.PropertyResidential))
}

func TestLandscapable_VacantLot(t *testing.T) {
	// No building: 5% access deduction only.
	assert.Equal(t, 9500.0, Landscapable(10000, 0, parcel.PropertyOther))
}

func TestLandscapable_ZeroLand(t *testing.T) {
	assert.Equal(t, 0.0, Landscapable(0, 2000, parcel.PropertyResidential))
	assert.Equal(t, 0.0, Landscapable(-5, 0, parcel.PropertyResidential))
}

func TestLandscapable_CommercialScaled(t *testing.T) {
	// Same lot as the residential case, scaled by 0.6.
	assert.Equal(t, 4320.0, Landscapable(10000, 2000, parcel.PropertyCommercial))
}

func TestLandscapable_IndustrialScaled(t *testing.T) {
	assert.InDelta(t, 2160.0, Landscapable(10000, 2000, parcel.PropertyIndustrial), 0.01)
}

func TestLandscapable_ResidentialFloor(t *testing.T) {
	// Building nearly fills the lot; floor keeps 20% of footprint as yard.
	got := Landscapable(3000, 2800, parcel.PropertyResidential)
	assert.Equal(t, 2800*0.2, got)
}

func TestLandscapable_HardscapeCap(t *testing.T) {
	// Oversized building on a tiny lot: hardscape capped at 60% of land,
	// raw estimate goes negative and clamps to zero before the floor.
	got := Landscapable(1000, 5000, parcel.PropertyOther)
	assert.Equal(t, 0.0, got)
}

func TestLandscapable_NeverNegative(t *testing.T) {
	assert.GreaterOrEqual(t, Landscapable(500, 5000, parcel.PropertyCommercial), 0.0)
}

func TestEstimateBuildingSqft(t *testing.T) {
	// $150k improvement at $100/sqft.
	assert.Equal(t, 1500.0, EstimateBuildingSqft(150000, 10000))
	// Capped at 70% of land.
	assert.Equal(t, 700.0, EstimateBuildingSqft(500000, 1000))
	assert.Equal(t, 0.0, EstimateBuildingSqft(0, 1000))
}

func TestAffluence_HighEnd(t *testing.T) {
	in := AffluenceInput{
		Assessment:   parcel.Assessment{TotalValue: 800000, LandValue: 100000, ImprovementValue: 700000},
		BuildingSqft: 4500,
		BuildingYear: 2015,
		LandAreaSqft: 50000,
		Region:       parcel.RegionCity,
	}
	// 3 + 1.5 + 0.5 + 1.5 + 1.0 = 7.5, clamped to 5.
	assert.Equal(t, 5.0, Affluence(in))
}

func TestAffluence_MidRange(t *testing.T) {
	in := AffluenceInput{
		Assessment:   parcel.Assessment{TotalValue: 200000, LandValue: 50000, ImprovementValue: 150000},
		BuildingSqft: 1800,
		BuildingYear: 1995,
		LandAreaSqft: 8000,
		Region:       parcel.RegionCity,
	}
	// 1 + 0.5 + 0.25 + 0 + 0.5 = 2.25
	assert.Equal(t, 2.25, Affluence(in))
}

func TestAffluence_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Affluence(AffluenceInput{Region: parcel.RegionCity}))
}

func TestAffluence_TearDownPenalty(t *testing.T) {
	in := AffluenceInput{
		Assessment:   parcel.Assessment{TotalValue: 100000, LandValue: 80000, ImprovementValue: 20000},
		BuildingSqft: 900,
		Region:       parcel.RegionCity,
	}
	// 0.5 value - 0.5 ratio penalty = 0
	assert.Equal(t, 0.0, Affluence(in))
}

func TestAffluence_CountyOwnerAdjustments(t *testing.T) {
	base := AffluenceInput{
		Assessment: parcel.Assessment{TotalValue: 200000},
		Region:     parcel.RegionCounty,
	}

	occupied := base
	occupied.Owner = parcel.Owner{Tenure: "OWNER", OwnerState: "MO"}
	assert.Equal(t, 1.25, Affluence(occupied))

	absentee := base
	absentee.Owner = parcel.Owner{Tenure: "TENANT", OwnerState: "IL"}
	assert.Equal(t, 0.75, Affluence(absentee))

	// Non two-letter state strings are ignored.
	odd := base
	odd.Owner = parcel.Owner{OwnerState: "ILLINOIS"}
	assert.Equal(t, 1.0, Affluence(odd))
}

func TestAffluence_CityIgnoresOwner(t *testing.T) {
	in := AffluenceInput{
		Assessment: parcel.Assessment{TotalValue: 200000},
		Owner:      parcel.Owner{Tenure: "OWNER", OwnerState: "IL"},
		Region:     parcel.RegionCity,
	}
	assert.Equal(t, 1.0, Affluence(in))
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1234.5, ParseFloat(" 1,234.5 "))
	assert.Equal(t, 150000.0, ParseFloat("$150,000"))
	assert.Equal(t, 0.0, ParseFloat(""))
	assert.Equal(t, 0.0, ParseFloat("N/A"))
	assert.Equal(t, 1985, ParseInt("1985.0"))
}
