package crs

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-proj/v11"
)

// Transformer projects coordinates from one source CRS into the two
// targets the pipeline uses. A Transformer and its underlying PROJ
// objects are not safe for concurrent use; each worker builds its own.
type Transformer struct {
	sourceEPSG int
	toUTM      *proj.PJ
	toWGS84    *proj.PJ
	utmToWGS84 *proj.PJ
}

// NewTransformer prepares projections from the source CRS to UTM zone
// 15N and to WGS84. The WGS84 target uses OGC:CRS84 so coordinates come
// back in lon,lat order regardless of the authority's axis convention.
func NewTransformer(sourceEPSG int) (*Transformer, error) {
	src := fmt.Sprintf("EPSG:%d", sourceEPSG)

	toUTM, err := proj.NewCRSToCRS(src, fmt.Sprintf("EPSG:%d", EPSGUTM15N), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: building %s to UTM transform", src)
	}
	toWGS84, err := proj.NewCRSToCRS(src, "OGC:CRS84", nil)
	if err != nil {
		return nil, eris.Wrapf(err, "crs: building %s to WGS84 transform", src)
	}
	utmToWGS84, err := proj.NewCRSToCRS(fmt.Sprintf("EPSG:%d", EPSGUTM15N), "OGC:CRS84", nil)
	if err != nil {
		return nil, eris.Wrap(err, "crs: building UTM to WGS84 transform")
	}

	return &Transformer{
		sourceEPSG: sourceEPSG,
		toUTM:      toUTM,
		toWGS84:    toWGS84,
		utmToWGS84: utmToWGS84,
	}, nil
}

// SourceEPSG returns the EPSG code the transformer was built for.
func (t *Transformer) SourceEPSG() int { return t.sourceEPSG }

// Close releases the underlying PROJ objects.
func (t *Transformer) Close() {
	t.toUTM.Destroy()
	t.toWGS84.Destroy()
	t.utmToWGS84.Destroy()
}

// ToUTMFlat reprojects a go-geom flat coordinate slice in place into UTM
// zone 15N so planar area math is valid.
func (t *Transformer) ToUTMFlat(flatCoords []float64, stride int) error {
	if t.sourceEPSG == EPSGUTM15N {
		return nil
	}
	// XY layout only: no Z or M dimension.
	if err := t.toUTM.ForwardFlatCoords(flatCoords, stride, -1, -1); err != nil {
		return eris.Wrap(err, "crs: reprojecting to UTM")
	}
	return nil
}

// ToWGS84 projects a single source-CRS point to lon,lat.
func (t *Transformer) ToWGS84(x, y float64) (lon, lat float64, err error) {
	c, err := t.toWGS84.Forward(proj.NewCoord(x, y, 0, 0))
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crs: reprojecting point (%f, %f)", x, y)
	}
	return c[0], c[1], nil
}

// ToWGS84Flat reprojects a flat coordinate slice in place to lon,lat.
func (t *Transformer) ToWGS84Flat(flatCoords []float64, stride int) error {
	if err := t.toWGS84.ForwardFlatCoords(flatCoords, stride, -1, -1); err != nil {
		return eris.Wrap(err, "crs: reprojecting to WGS84")
	}
	return nil
}

// UTMToWGS84 converts a point already in UTM zone 15N to lon,lat. Used
// for centroids, which are computed in the planar CRS for accuracy.
func (t *Transformer) UTMToWGS84(x, y float64) (lon, lat float64, err error) {
	c, err := t.utmToWGS84.Forward(proj.NewCoord(x, y, 0, 0))
	if err != nil {
		return 0, 0, eris.Wrapf(err, "crs: reprojecting centroid (%f, %f)", x, y)
	}
	return c[0], c[1], nil
}
