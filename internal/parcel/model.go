// Package parcel defines the canonical record types produced by the
// normalization pipeline and the per-run statistics that accompany them.
package parcel

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Region identifies one of the two source schemas.
type Region string

const (
	RegionCity   Region = "city"
	RegionCounty Region = "county"
)

// PropertyType is the 6-value taxonomy plus the unknown sentinel.
type PropertyType string

const (
	PropertyResidential  PropertyType = "residential"
	PropertyCommercial   PropertyType = "commercial"
	PropertyIndustrial   PropertyType = "industrial"
	PropertyAgricultural PropertyType = "agricultural"
	PropertyExempt       PropertyType = "exempt"
	PropertyOther        PropertyType = "other"
	PropertyUnknown      PropertyType = "unknown"
)

// Address is a standardized mailing address. Render produces the single
// canonical string form used everywhere downstream.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// Render returns "{street}, {city}, {state} {zip}" with collapsed whitespace.
func (a Address) Render() string {
	s := fmt.Sprintf("%s, %s, %s %s", a.Street, a.City, a.State, a.Zip)
	return strings.Join(strings.Fields(s), " ")
}

// Calc holds the derived per-parcel metrics.
type Calc struct {
	LandAreaSqft                  float64      `json:"landarea_sqft"`
	BuildingSqft                  float64      `json:"building_sqft"`
	EstimatedLandscapableAreaSqft float64      `json:"estimated_landscapable_area_sqft"`
	PropertyType                  PropertyType `json:"property_type"`
	YearBuilt                     int          `json:"year_built"`
}

// Assessment holds the assessed values carried through from the source row.
type Assessment struct {
	TotalValue       float64 `json:"total_value"`
	LandValue        float64 `json:"land_value"`
	ImprovementValue float64 `json:"improvement_value"`
}

// Owner holds ownership attributes. Tenure and OwnerState are only populated
// for the county schema.
type Owner struct {
	Name       string `json:"name"`
	Tenure     string `json:"tenure,omitempty"`
	OwnerState string `json:"owner_state,omitempty"`
}

// Record is the canonical output unit, created once per valid raw row and
// immutable thereafter.
type Record struct {
	ID               string     `json:"id"`
	OriginalParcelID string     `json:"original_parcel_id"`
	FullAddress      string     `json:"full_address"`
	Region           Region     `json:"region"`
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	Calc             Calc       `json:"calc"`
	Assessment       Assessment `json:"assessment"`
	Owner            Owner      `json:"owner"`
	AffluenceScore   float64    `json:"affluence_score"`
	SourceFile       string     `json:"source_file"`
	Geometry         *Geometry  `json:"geometry,omitempty"`
}

// RunStatus tracks an ingest run's lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one ingest invocation.
type Run struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Version   string    `json:"version"`
	Status    RunStatus `json:"status"`
	Stats     *Stats    `json:"stats,omitempty"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bounds is a dataset bounding box in its source projection.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Geometry is a simplified GeoJSON Polygon or MultiPolygon in WGS84, with
// coordinates rounded to 5 decimal places and a [minx, miny, maxx, maxy] bbox.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	BBox        [4]float64      `json:"bbox"`
}
