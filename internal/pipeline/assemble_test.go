package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-pipeline/internal/address"
	"github.com/sells-group/parcel-pipeline/internal/anomaly"
	"github.com/sells-group/parcel-pipeline/internal/geometry"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

func cityAssembler(t *testing.T, policy anomaly.Policy) (*assembler, *parcel.Stats) {
	t.Helper()
	defaults := address.Defaults{City: "St. Louis", State: "MO", Zip: "63102"}
	asm := newAssembler(parcel.RegionCity, defaults, anomaly.NewLogger(policy, true), "prcl.shp")
	return asm, &parcel.Stats{}
}

func countyAssembler(t *testing.T) (*assembler, *parcel.Stats) {
	t.Helper()
	defaults := address.Defaults{City: "St. Louis County", State: "MO", Zip: "63105"}
	asm := newAssembler(parcel.RegionCounty, defaults, anomaly.NewLogger(anomaly.DefaultPolicy(), true), "Parcels_Current.shp")
	return asm, &parcel.Stats{}
}

func testGeo() *geometry.Result {
	coords := json.RawMessage(`[[[-90.19,38.62],[-90.18,38.62],[-90.18,38.63],[-90.19,38.63],[-90.19,38.62]]]`)
	return &geometry.Result{
		Geometry: parcel.Geometry{
			Type:        "Polygon",
			Coordinates: coords,
			BBox:        [4]float64{-90.19, 38.62, -90.18, 38.63},
		},
		LandAreaSqft: 10000,
		Latitude:     38.625,
		Longitude:    -90.185,
	}
}

func TestAssembleCityRow(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":     "10001000100",
		"SITEADDR":   "742 N GRAND BLVD",
		"ZIP":        "63103",
		"ASMTTOTAL":  "250000",
		"ASMTLAND":   "50000",
		"ASMTIMPROV": "200000",
		"BDG1AREA":   "2000",
		"BDG1YEAR":   "1995",
		"ASRCLASS1":  "A",
		"OWNERNAME":  "DOE JANE",
	}, testGeo(), stats)

	require.NotNil(t, rec)
	assert.Equal(t, "city_10001000100", rec.ID)
	assert.Equal(t, "10001000100", rec.OriginalParcelID)
	assert.Equal(t, "742 N Grand Blvd., St. Louis, MO 63103", rec.FullAddress)
	assert.Equal(t, parcel.RegionCity, rec.Region)
	assert.Equal(t, parcel.PropertyResidential, rec.Calc.PropertyType)
	assert.Equal(t, 10000.0, rec.Calc.LandAreaSqft)
	assert.Equal(t, 2000.0, rec.Calc.BuildingSqft)
	// hardscape = 2000*min(0.15+0.1, 0.25)+300 = 800, 10000-2000-800 = 7200
	assert.Equal(t, 7200.0, rec.Calc.EstimatedLandscapableAreaSqft)
	assert.Equal(t, 1995, rec.Calc.YearBuilt)
	assert.Equal(t, 250000.0, rec.Assessment.TotalValue)
	assert.Equal(t, "DOE JANE", rec.Owner.Name)
	assert.Equal(t, 38.625, rec.Latitude)
	assert.Equal(t, -90.185, rec.Longitude)
	require.NotNil(t, rec.Geometry)
	assert.Equal(t, "Polygon", rec.Geometry.Type)
	assert.Greater(t, rec.AffluenceScore, 0.0)

	assert.Equal(t, 1, stats.TotalProcessed)
	assert.Equal(t, 1, stats.ValidAddresses)
	assert.Equal(t, 1, stats.CityProcessed)
	assert.Equal(t, 1, stats.CityValid)
}

func TestAssembleCountyRow(t *testing.T) {
	asm, stats := countyAssembler(t)

	rec := asm.assemble(map[string]string{
		"LOCATOR":    "19K220099",
		"PROP_ADD":   "12 SUNNY HILL DR",
		"PROP_ZIP":   "63127",
		"MUNICIPALI": "UNINCORPORATED",
		"TOTAPVAL":   "380000",
		"LAND_VAL":   "90000",
		"IMPROV_VAL": "290000",
		"RESQFT":     "2600",
		"YEAR_BUILT": "1988",
		"PROPCLASS":  "R",
		"OWNER_NAME": "SMITH ROBERT",
		"TENURE":     "OWNER OCCUPIED",
		"OWN_STATE":  "MO",
	}, testGeo(), stats)

	require.NotNil(t, rec)
	assert.Equal(t, "county_19K220099", rec.ID)
	assert.Equal(t, "12 Sunny Hill Dr., St. Louis County (Unincorporated), MO 63127", rec.FullAddress)
	assert.Equal(t, parcel.PropertyResidential, rec.Calc.PropertyType)
	assert.Equal(t, 2600.0, rec.Calc.BuildingSqft)
	assert.Equal(t, "OWNER OCCUPIED", rec.Owner.Tenure)
	assert.Equal(t, 0, stats.ForeignOwner)
}

func TestAssembleMissingParcelID(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{"SITEADDR": "100 MAIN ST"}, nil, stats)
	assert.Nil(t, rec)
	assert.Equal(t, 0, stats.TotalProcessed)
}

func TestAssembleMissingStreetDropped(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	for _, raw := range []string{"", "NAN", "none"} {
		rec := asm.assemble(map[string]string{"HANDLE": "X1", "SITEADDR": raw}, nil, stats)
		assert.Nil(t, rec)
	}
	assert.Equal(t, 3, stats.MissingStreet)
	assert.Equal(t, 3, stats.TotalProcessed)
	assert.Equal(t, 0, stats.ValidAddresses)
}

func TestAssemblePOBoxAdvisoryKept(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":   "X2",
		"SITEADDR": "PO BOX 411",
		"ZIP":      "63103",
	}, nil, stats)

	require.NotNil(t, rec)
	assert.Equal(t, 1, stats.POBox)
	recs := asm.anomalies.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, anomaly.POBox, recs[0].Category)
	assert.Equal(t, anomaly.Advisory, recs[0].Action)
}

func TestAssemblePOBoxDropPolicy(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.Policy{anomaly.POBox: anomaly.Drop})

	rec := asm.assemble(map[string]string{
		"HANDLE":   "X3",
		"SITEADDR": "P.O. BOX 411",
	}, nil, stats)

	assert.Nil(t, rec)
	assert.Equal(t, 1, stats.POBox)
}

func TestAssembleMissingNumberDropped(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":   "X4",
		"SITEADDR": "GRAND BLVD",
	}, nil, stats)

	assert.Nil(t, rec)
	assert.Equal(t, 1, stats.MissingNumber)
}

func TestAssembleInvalidZipFallsBack(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":   "X5",
		"SITEADDR": "100 MARKET ST",
		"ZIP":      "999",
	}, nil, stats)

	require.NotNil(t, rec)
	assert.Equal(t, "100 Market St., St. Louis, MO 63102", rec.FullAddress)
	assert.Equal(t, 1, stats.InvalidZip)
}

func TestAssembleMissingZipCountsAndDefaults(t *testing.T) {
	for _, raw := range []string{"", "nan"} {
		asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

		rec := asm.assemble(map[string]string{
			"HANDLE":   "X9",
			"SITEADDR": "100 MARKET ST",
			"ZIP":      raw,
		}, nil, stats)

		require.NotNil(t, rec)
		assert.Equal(t, "100 Market St., St. Louis, MO 63102", rec.FullAddress)
		assert.Equal(t, 1, stats.InvalidZip)

		recs := asm.anomalies.Records()
		require.Len(t, recs, 1)
		assert.Equal(t, anomaly.InvalidZip, recs[0].Category)
	}
}

func TestAssembleZipTrailingDecimal(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":   "X6",
		"SITEADDR": "100 MARKET ST",
		"ZIP":      "63104.0",
	}, nil, stats)

	require.NotNil(t, rec)
	assert.Equal(t, "100 Market St., St. Louis, MO 63104", rec.FullAddress)
	assert.Equal(t, 0, stats.InvalidZip)
}

func TestAssembleForeignOwnerAdvisory(t *testing.T) {
	asm, stats := countyAssembler(t)

	rec := asm.assemble(map[string]string{
		"LOCATOR":    "20A110011",
		"PROP_ADD":   "800 OAK AVE",
		"OWNER_NAME": "HOLDINGS LLC",
		"OWN_STATE":  "tx",
		"PROPCLASS":  "C",
	}, nil, stats)

	require.NotNil(t, rec)
	assert.Equal(t, "TX", rec.Owner.OwnerState)
	assert.Equal(t, 1, stats.ForeignOwner)
}

func TestAssembleCityEstimatesBuildingSqft(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":     "X7",
		"SITEADDR":   "100 MARKET ST",
		"ASMTIMPROV": "150000",
		"ASRCLASS1":  "A",
	}, testGeo(), stats)

	require.NotNil(t, rec)
	// 150000/100 = 1500, under the 70% land cap of 7000.
	assert.Equal(t, 1500.0, rec.Calc.BuildingSqft)
}

func TestAssembleSecondOwnerName(t *testing.T) {
	asm, stats := cityAssembler(t, anomaly.DefaultPolicy())

	rec := asm.assemble(map[string]string{
		"HANDLE":     "X8",
		"SITEADDR":   "100 MARKET ST",
		"OWNERNAME":  "DOE JANE",
		"OWNERNAME2": "DOE JOHN",
	}, nil, stats)

	require.NotNil(t, rec)
	assert.Equal(t, "DOE JANE & DOE JOHN", rec.Owner.Name)
}
