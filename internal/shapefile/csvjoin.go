package shapefile

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JoinCSV left-joins a CSV of supplemental attributes onto the dataset,
// matching on keyColumn. The city address export has one row per unit,
// so only the first CSV row per key is used. Existing shapefile
// attributes win over CSV values on name collisions.
func JoinCSV(ds *Dataset, csvPath, keyColumn string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return eris.Wrapf(err, "shapefile: open csv %s", csvPath)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return eris.Wrapf(err, "shapefile: reading csv header %s", csvPath)
	}
	keyIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if strings.EqualFold(header[i], keyColumn) {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return eris.Errorf("shapefile: csv %s has no %q column", csvPath, keyColumn)
	}

	byKey := make(map[string][]string)
	var dupes int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return eris.Wrapf(err, "shapefile: reading csv %s", csvPath)
		}
		if keyIdx >= len(rec) {
			continue
		}
		key := strings.TrimSpace(rec[keyIdx])
		if key == "" {
			continue
		}
		if _, seen := byKey[key]; seen {
			dupes++
			continue
		}
		byKey[key] = rec
	}
	if dupes > 0 {
		zap.L().Debug("shapefile: duplicate csv keys ignored",
			zap.String("path", csvPath),
			zap.Int("count", dupes),
		)
	}

	var joined int
	for _, row := range ds.Rows {
		key := strings.TrimSpace(row.Attrs[keyColumn])
		rec, ok := byKey[key]
		if !ok {
			continue
		}
		joined++
		for i, name := range header {
			if i >= len(rec) || name == "" {
				continue
			}
			val := strings.TrimSpace(rec[i])
			if val == "" {
				continue
			}
			if _, exists := row.Attrs[name]; !exists {
				row.Attrs[name] = val
			}
		}
	}

	zap.L().Info("shapefile: csv join complete",
		zap.String("path", csvPath),
		zap.Int("matched", joined),
		zap.Int("csv_rows", len(byKey)),
	)
	return nil
}
