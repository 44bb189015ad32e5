// Package metrics computes the derived per-parcel measures: the
// landscapable-area estimate and the affluence score. Both are simple
// deterministic formulas over the assessment and building attributes, so
// the same input row always yields the same record.
package metrics

import "github.com/sells-group/parcel-pipeline/internal/parcel"

// Landscapable estimates the square footage of a parcel that could be
// landscaped, by subtracting the building footprint and an estimated
// hardscape allowance (driveways, walks, patios) from the land area.
//
// The hardscape share of the building footprint grows with building size
// up to 25%, plus a flat 300 sqft for walkways. Parcels with no building
// on record get a nominal 5% hardscape deduction instead. Commercial and
// industrial parcels are mostly paved, so their estimate is scaled down
// hard; residential parcels are floored at 20% of the building footprint
// since even dense lots keep some plantable ground.
func Landscapable(landSqft, buildingSqft float64, typ parcel.PropertyType) float64 {
	if landSqft <= 0 {
		return 0
	}

	var hardscape float64
	if buildingSqft > 0 {
		share := 0.15 + buildingSqft/20000
		if share > 0.25 {
			share = 0.25
		}
		hardscape = buildingSqft*share + 300
	} else {
		hardscape = landSqft * 0.05
	}
	if max := landSqft * 0.60; hardscape > max {
		hardscape = max
	}

	estimate := landSqft - buildingSqft - hardscape
	if estimate < 0 {
		estimate = 0
	}

	switch typ {
	case parcel.PropertyCommercial:
		estimate *= 0.6
	case parcel.PropertyIndustrial:
		estimate *= 0.3
	case parcel.PropertyResidential:
		if buildingSqft > 0 {
			if floor := buildingSqft * 0.20; estimate < floor {
				estimate = floor
			}
			if cap := landSqft * 0.90; estimate > cap {
				estimate = cap
			}
		}
	}

	return round2(estimate)
}

// EstimateBuildingSqft backfills a missing building area from the
// improvement value at roughly $100/sqft, capped at 70% of the land area.
// City rows lack a building-area column so this is their only source.
func EstimateBuildingSqft(improvementValue, landSqft float64) float64 {
	if improvementValue <= 0 {
		return 0
	}
	est := improvementValue / 100
	if landSqft > 0 && est > landSqft*0.70 {
		est = landSqft * 0.70
	}
	return est
}
