package index

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// WriteRecords dumps the canonical parcel records to path as an
// indented JSON array.
func WriteRecords(path string, records []parcel.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "index: marshal records")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "index: write %s", path)
	}
	return nil
}

// GeometryMap projects records onto a parcel-id to geometry map for
// map rendering. Records without geometry are left out.
func GeometryMap(records []parcel.Record) map[string]*parcel.Geometry {
	out := make(map[string]*parcel.Geometry, len(records))
	for i := range records {
		if records[i].Geometry == nil {
			continue
		}
		out[records[i].ID] = records[i].Geometry
	}
	return out
}

// WriteGeometryMap writes the geometry map for records to path.
func WriteGeometryMap(path string, records []parcel.Record) error {
	data, err := json.MarshalIndent(GeometryMap(records), "", "  ")
	if err != nil {
		return eris.Wrap(err, "index: marshal geometry map")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "index: write %s", path)
	}
	return nil
}
