// Package crs resolves the coordinate reference system of a parcel
// shapefile and provides the projections the pipeline needs: source CRS
// to UTM zone 15N for area math and to WGS84 for output coordinates.
package crs

import (
	"fmt"
	"strings"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// EPSG codes the St. Louis datasets actually ship in.
const (
	EPSGMissouriEast = 2815  // Missouri State Plane East, US survey feet
	EPSGStatePlaneW  = 26916 // State Plane West style ranges, feet
	EPSGUTM15N       = 26915 // NAD83 / UTM zone 15N, meters
	EPSGWGS84        = 4326
)

// Source records which step of the resolution chain produced the answer.
type Source string

const (
	SourceDeclared Source = "declared" // pinned in config
	SourceSidecar  Source = "sidecar"  // parsed from the .prj file
	SourceInferred Source = "inferred" // guessed from coordinate ranges
	SourceDefault  Source = "default"  // per-region fallback
)

// Resolution is the outcome of resolving a shapefile's CRS.
type Resolution struct {
	EPSG   int
	Source Source
}

func (r Resolution) String() string {
	return fmt.Sprintf("EPSG:%d (%s)", r.EPSG, r.Source)
}

// rangeRule matches a dataset bounding box against the typical extent of
// a known CRS. Rules are checked in declaration order and the first match
// wins, so overlapping extents resolve deterministically.
type rangeRule struct {
	epsg                   int
	minX, maxX, minY, maxY float64
}

var inferenceRules = []rangeRule{
	// Missouri State Plane East in survey feet, St. Louis extent.
	{epsg: EPSGMissouriEast, minX: 570000, maxX: 610000, minY: 970000, maxY: 1010000},
	// State Plane West style feet.
	{epsg: EPSGStatePlaneW, minX: 1600000, maxX: 2600000, minY: 1100000, maxY: 2000000},
	// UTM zone 15N meters.
	{epsg: EPSGUTM15N, minX: 700000, maxX: 800000, minY: 4200000, maxY: 4400000},
}

// regionDefault is the last-resort assumption per dataset.
func regionDefault(region parcel.Region) int {
	if region == parcel.RegionCounty {
		return EPSGStatePlaneW
	}
	return EPSGMissouriEast
}

// Resolve walks the resolution chain: a declared EPSG from config wins,
// then a recognizable .prj sidecar, then coordinate-range inference over
// the dataset bounds, then the per-region default.
func Resolve(declared int, sidecarWKT string, bounds parcel.Bounds, region parcel.Region) Resolution {
	if declared != 0 {
		return Resolution{EPSG: declared, Source: SourceDeclared}
	}
	if epsg, ok := epsgFromWKT(sidecarWKT); ok {
		return Resolution{EPSG: epsg, Source: SourceSidecar}
	}
	for _, r := range inferenceRules {
		if bounds.MinX >= r.minX && bounds.MaxX <= r.maxX &&
			bounds.MinY >= r.minY && bounds.MaxY <= r.maxY {
			return Resolution{EPSG: r.epsg, Source: SourceInferred}
		}
	}
	return Resolution{EPSG: regionDefault(region), Source: SourceDefault}
}

// epsgFromWKT recognizes the handful of projections the source shapefiles
// declare. Full WKT parsing is not worth it for two datasets; unknown WKT
// falls through to range inference.
func epsgFromWKT(wkt string) (int, bool) {
	w := strings.ToUpper(wkt)
	switch {
	case w == "":
		return 0, false
	case strings.Contains(w, `"EPSG",2815`) || strings.Contains(w, `"EPSG","2815"`),
		strings.Contains(w, "MISSOURI_EAST") || strings.Contains(w, "MISSOURI EAST"):
		return EPSGMissouriEast, true
	case strings.Contains(w, `"EPSG",26916`) || strings.Contains(w, `"EPSG","26916"`),
		strings.Contains(w, "UTM_ZONE_16N") || strings.Contains(w, "UTM ZONE 16N"):
		return EPSGStatePlaneW, true
	case strings.Contains(w, `"EPSG",26915`) || strings.Contains(w, `"EPSG","26915"`),
		strings.Contains(w, "UTM_ZONE_15N") || strings.Contains(w, "UTM ZONE 15N"):
		return EPSGUTM15N, true
	case strings.Contains(w, `"EPSG",4326`) || strings.Contains(w, `"EPSG","4326"`) ||
		strings.Contains(w, "GCS_WGS_1984") || strings.Contains(w, `GEOGCS["WGS 84"`):
		return EPSGWGS84, true
	}
	return 0, false
}
