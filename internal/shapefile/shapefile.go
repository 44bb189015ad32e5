// Package shapefile reads ESRI shapefiles and their attribute sidecars
// into rows the pipeline can process. Attributes stay as raw strings
// keyed by column name; downstream stages own parsing and mapping.
package shapefile

import (
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Row is one shapefile record: its attribute values and its shape.
// Shape is nil when the record had no usable geometry.
type Row struct {
	Attrs map[string]string
	Shape geom.T
}

// Dataset is a fully loaded shapefile plus its .prj sidecar if present.
type Dataset struct {
	Path       string
	Rows       []Row
	Bounds     parcel.Bounds
	SidecarWKT string
}

// Load reads up to limit records from the shapefile at path. A limit of
// zero or less reads everything.
func Load(path string, limit int) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	box := reader.BBox()
	ds := &Dataset{
		Path:       path,
		Bounds:     parcel.Bounds{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY},
		SidecarWKT: readSidecar(path),
	}

	var malformed int
	for reader.Next() {
		if limit > 0 && len(ds.Rows) >= limit {
			break
		}
		_, shape := reader.Shape()

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}

		g := shapeToGeom(shape)
		if shape != nil && g == nil {
			malformed++
		}
		ds.Rows = append(ds.Rows, Row{Attrs: attrs, Shape: g})
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "shapefile: reading %s", path)
	}

	if malformed > 0 {
		zap.L().Debug("shapefile: records with unusable geometry",
			zap.String("path", path),
			zap.Int("count", malformed),
		)
	}

	return ds, nil
}

// readSidecar returns the contents of the .prj file next to the
// shapefile, or empty if there is none.
func readSidecar(shpPath string) string {
	prj := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// shapeToGeom converts a go-shp shape to a go-geom geometry. Parcel
// layers are polygons; points and polylines are handled for
// completeness. Unsupported or degenerate shapes come back nil.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PolyLine:
		return polyLineToMultiLineString(s)
	case *shp.Polygon:
		return polygonToMultiPolygon(s)
	default:
		return nil
	}
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)
	for i := int32(0); i < pl.NumParts; i++ {
		flat := partCoords(pl.Points, pl.Parts, i, pl.NumParts)
		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("shapefile: skipping malformed polyline part", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonToMultiPolygon groups the shape's rings into polygons by
// orientation: clockwise rings are exteriors, counter-clockwise rings
// are holes of the preceding exterior (the shapefile ring convention).
// A single exterior comes back as a Polygon, several as a MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	var cur *geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		flat := partCoords(p.Points, p.Parts, i, p.NumParts)
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		// A hole with no exterior before it is treated as an exterior.
		if cur == nil || !ringIsHole(flat) {
			cur = geom.NewPolygon(geom.XY)
			if err := cur.Push(ring); err != nil {
				zap.L().Debug("shapefile: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
				cur = nil
				continue
			}
			polys = append(polys, cur)
			continue
		}
		if err := cur.Push(ring); err != nil {
			zap.L().Debug("shapefile: skipping malformed interior ring", zap.Int32("part", i), zap.Error(err))
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for i, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// ringIsHole reports whether a flat XY ring winds counter-clockwise,
// which marks an interior ring in the shapefile convention.
func ringIsHole(flat []float64) bool {
	var area2 float64
	for i := 0; i+3 < len(flat); i += 2 {
		area2 += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return area2 > 0
}

// partCoords flattens one part of a multi-part shape.
func partCoords(points []shp.Point, parts []int32, i, numParts int32) []float64 {
	start := parts[i]
	end := int32(len(points))
	if i+1 < numParts {
		end = parts[i+1]
	}
	flat := make([]float64, 0, (end-start)*2)
	for j := start; j < end; j++ {
		flat = append(flat, points[j].X, points[j].Y)
	}
	return flat
}
