// Package index builds the address lookup index consumed by the search
// service: a compact JSON document of standardized addresses with
// geographic coordinates, plus metadata describing the build.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Entry is one searchable address.
type Entry struct {
	ID          string  `json:"id"`
	FullAddress string  `json:"full_address"`
	Region      string  `json:"region"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Metadata describes one index build.
type Metadata struct {
	Region         string `json:"region"`
	TotalAddresses int    `json:"total_addresses"`
	BuildTime      string `json:"build_time"`
	Source         string `json:"source"`
	Version        string `json:"version"`
}

// Index is the on-disk document.
type Index struct {
	Addresses []Entry  `json:"addresses"`
	Metadata  Metadata `json:"metadata"`
}

// Version stamps a build as v1.<unix-seconds>, with an optional suffix
// for partial datasets (v1.1724800000_10k).
func Version(at time.Time, suffix string) string {
	v := fmt.Sprintf("v1.%d", at.Unix())
	if suffix != "" {
		v += "_" + suffix
	}
	return v
}

// Build assembles an index from pipeline records. Records without a
// usable address or coordinates are skipped; the caller has already
// logged those as anomalies.
func Build(records []parcel.Record, region, source, version string, at time.Time) *Index {
	idx := &Index{Addresses: make([]Entry, 0, len(records))}
	for _, r := range records {
		if r.FullAddress == "" || (r.Latitude == 0 && r.Longitude == 0) {
			continue
		}
		idx.Addresses = append(idx.Addresses, Entry{
			ID:          r.ID,
			FullAddress: r.FullAddress,
			Region:      string(r.Region),
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
		})
	}
	idx.Metadata = Metadata{
		Region:         region,
		TotalAddresses: len(idx.Addresses),
		BuildTime:      at.UTC().Format(time.RFC3339),
		Source:         source,
		Version:        version,
	}
	return idx
}

// Write serializes the index to path as indented JSON.
func (idx *Index) Write(path string) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return eris.Wrap(err, "index: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "index: write %s", path)
	}
	return nil
}

// Read loads an index document from path.
func Read(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "index: read %s", path)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, eris.Wrapf(err, "index: parse %s", path)
	}
	return &idx, nil
}
