package metrics

import (
	"strings"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// AffluenceInput carries everything the score reads. Building and land
// figures are the derived values, not the raw columns, so the score stays
// consistent with what the record reports.
type AffluenceInput struct {
	Assessment   parcel.Assessment
	BuildingSqft float64
	BuildingYear int
	LandAreaSqft float64
	Owner        parcel.Owner
	Region       parcel.Region
}

// Affluence scores a parcel 0 to 5 as a proxy for neighborhood affluence.
// Points accrue from assessed value, building size and age, lot size, and
// the improvement-to-land value ratio. County rows add small owner-tenure
// adjustments: owner-occupied parcels score up, out-of-state owners score
// down. The result is clamped to [0, 5] and rounded to two decimals.
func Affluence(in AffluenceInput) float64 {
	var score float64

	// Assessed value, up to 3 points.
	switch {
	case in.Assessment.TotalValue > 750000:
		score += 3
	case in.Assessment.TotalValue > 500000:
		score += 2.5
	case in.Assessment.TotalValue > 300000:
		score += 2
	case in.Assessment.TotalValue > 150000:
		score += 1
	case in.Assessment.TotalValue > 75000:
		score += 0.5
	}

	// Building size and age, up to 2 points.
	if in.BuildingSqft > 0 {
		switch {
		case in.BuildingSqft > 4000:
			score += 1.5
		case in.BuildingSqft > 2500:
			score += 1.0
		case in.BuildingSqft > 1500:
			score += 0.5
		}
		switch {
		case in.BuildingYear > 2010:
			score += 0.5
		case in.BuildingYear > 1990:
			score += 0.25
		}
	}

	// Lot size, up to 1.5 points. 43560 sqft is one acre.
	switch {
	case in.LandAreaSqft > 43560:
		score += 1.5
	case in.LandAreaSqft > 21780:
		score += 1.0
	case in.LandAreaSqft > 10000:
		score += 0.5
	}

	// Improvement-to-land ratio signals investment in the parcel.
	if in.Assessment.LandValue > 0 && in.Assessment.ImprovementValue > 0 {
		ratio := in.Assessment.ImprovementValue / in.Assessment.LandValue
		switch {
		case ratio > 5:
			score += 1.0
		case ratio > 2:
			score += 0.5
		case ratio < 0.5 && in.BuildingSqft > 0:
			// Land worth more than the building on it, likely a
			// tear-down or underutilized lot.
			score -= 0.5
		}
	}

	if in.Region == parcel.RegionCounty {
		if strings.ToUpper(strings.TrimSpace(in.Owner.Tenure)) == "OWNER" {
			score += 0.25
		}
		state := strings.ToUpper(strings.TrimSpace(in.Owner.OwnerState))
		if len(state) == 2 && state != "MO" {
			score -= 0.25
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return round2(score)
}
