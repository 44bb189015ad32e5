package pipeline

import (
	"fmt"

	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/parcel-pipeline/internal/mapping"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
	"github.com/sells-group/parcel-pipeline/internal/shapefile"
)

// syntheticDataset fabricates a deterministic fixture dataset in the UTM
// zone 15N range around downtown St. Louis. It exists so the full ingest
// can be exercised without the source shapefiles, and only runs when
// pipeline.allow_synthetic is set.
func syntheticDataset(region parcel.Region, limit int) *shapefile.Dataset {
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	cols := mapping.For(region)

	streets := []string{"MARKET ST", "OLIVE ST", "CHESTNUT ST", "PINE ST", "LOCUST ST"}
	classes := map[parcel.Region][]string{
		parcel.RegionCity:   {"A", "B", "C", "D", "E"},
		parcel.RegionCounty: {"R", "C", "I", "A", "E"},
	}

	ds := &shapefile.Dataset{
		Path: fmt.Sprintf("synthetic://%s", region),
		Bounds: parcel.Bounds{
			MinX: 744000, MinY: 4278000,
			MaxX: 746000, MaxY: 4280000,
		},
	}

	for i := 0; i < limit; i++ {
		attrs := map[string]string{
			cols.ParcelID:               fmt.Sprintf("SYN%05d", i),
			cols.Address.Zip:            "63101",
			cols.Assessment.Total:       fmt.Sprintf("%d", 150000+i*1000),
			cols.Assessment.Land:        fmt.Sprintf("%d", 40000+i*200),
			cols.Assessment.Improvement: fmt.Sprintf("%d", 110000+i*800),
			cols.Building.Area:          fmt.Sprintf("%d", 1200+i*10),
			cols.Building.Year:          fmt.Sprintf("%d", 1950+i%70),
			cols.PropertyClass:          classes[region][i%5],
			cols.Owner.Name:             fmt.Sprintf("Synthetic Owner %d", i),
		}
		street := fmt.Sprintf("%d %s", 100+i*4, streets[i%len(streets)])
		if cols.Address.Full != "" {
			attrs[cols.Address.Full] = street
		} else {
			attrs[cols.Address.StreetPrimary] = street
		}
		if cols.Owner.Tenure != "" {
			attrs[cols.Owner.Tenure] = "OWNER OCCUPIED"
			attrs[cols.Owner.State] = "MO"
		}

		// Rows lay out on a grid of 30m squares, about a city lot each.
		ox := 744000 + float64(i%50)*40
		oy := 4278000 + float64(i/50)*40
		ds.Rows = append(ds.Rows, shapefile.Row{
			Attrs: attrs,
			Shape: squareAt(ox, oy, 30),
		})
	}
	return ds
}

func squareAt(x, y, side float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y,
		x + side, y,
		x + side, y + side,
		x, y + side,
		x, y,
	}, []int{10})
}
