// Package geometry turns projected parcel shapes into the values the
// output records carry: a WGS84 GeoJSON-style geometry, the land area in
// square feet, and a centroid. Area and centroid are computed in UTM zone
// 15N where planar math is valid, then only the final coordinates are
// reprojected.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"

	"github.com/sells-group/parcel-pipeline/internal/crs"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

const sqMetersToSqFeet = 10.7639

// Result is everything derived from one parcel shape.
type Result struct {
	Geometry     parcel.Geometry
	LandAreaSqft float64
	Latitude     float64
	Longitude    float64
}

// Extractor derives Results using a fixed source CRS. Not safe for
// concurrent use; each pipeline worker holds its own.
type Extractor struct {
	tr *crs.Transformer
}

func NewExtractor(tr *crs.Transformer) *Extractor {
	return &Extractor{tr: tr}
}

// Extract computes area, centroid, and WGS84 geometry for one shape.
func (e *Extractor) Extract(g geom.T) (Result, error) {
	if g == nil || len(g.FlatCoords()) == 0 {
		return Result{}, eris.New("geometry: empty shape")
	}

	utm, err := reproject(g, e.tr.ToUTMFlat)
	if err != nil {
		return Result{}, err
	}

	area := planarArea(utm) * sqMetersToSqFeet

	centroid, err := xy.Centroid(utm)
	if err != nil {
		return Result{}, eris.Wrap(err, "geometry: centroid")
	}
	lon, lat, err := e.tr.UTMToWGS84(centroid[0], centroid[1])
	if err != nil {
		return Result{}, err
	}
	// A centroid outside geographic range means the source CRS was
	// resolved wrong; projected coordinates must never ship as WGS84.
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return Result{}, eris.Errorf("geometry: centroid (%f, %f) outside geographic range", lat, lon)
	}

	wgs, err := reproject(g, e.tr.ToWGS84Flat)
	if err != nil {
		return Result{}, err
	}
	roundFlat(wgs.FlatCoords(), 5)

	gj, err := geojson.Encode(wgs)
	if err != nil {
		return Result{}, eris.Wrap(err, "geometry: encoding geojson")
	}

	b := wgs.Bounds()
	return Result{
		Geometry: parcel.Geometry{
			Type:        gj.Type,
			Coordinates: *gj.Coordinates,
			BBox:        [4]float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)},
		},
		LandAreaSqft: round(area, 2),
		Latitude:     round(lat, 6),
		Longitude:    round(lon, 6),
	}, nil
}

// reproject runs transform over a copy of the shape's flat coordinates
// and rebuilds the same geometry type around them.
func reproject(g geom.T, transform func([]float64, int) error) (geom.T, error) {
	flat := append([]float64(nil), g.FlatCoords()...)
	if err := transform(flat, g.Stride()); err != nil {
		return nil, err
	}

	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(t.Layout(), flat), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(t.Layout(), flat), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), flat, t.Ends()), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), flat, t.Endss()), nil
	default:
		return nil, eris.Errorf("geometry: unsupported shape type %T", g)
	}
}

// planarArea returns the area in the shape's own units squared. Points
// and lines have no area.
func planarArea(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return math.Abs(t.Area())
	case *geom.MultiPolygon:
		return math.Abs(t.Area())
	default:
		return 0
	}
}

func roundFlat(flat []float64, places int) {
	for i := range flat {
		flat[i] = round(flat[i], places)
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
