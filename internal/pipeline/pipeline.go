// Package pipeline orchestrates the ingest: load source rows, resolve the
// coordinate system, extract geometry, standardize addresses, derive
// metrics, and assemble canonical records.
package pipeline

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/parcel-pipeline/internal/address"
	"github.com/sells-group/parcel-pipeline/internal/anomaly"
	"github.com/sells-group/parcel-pipeline/internal/config"
	"github.com/sells-group/parcel-pipeline/internal/crs"
	"github.com/sells-group/parcel-pipeline/internal/geometry"
	"github.com/sells-group/parcel-pipeline/internal/mapping"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
	"github.com/sells-group/parcel-pipeline/internal/shapefile"
)

// Pipeline runs the ingest for one or both regions.
type Pipeline struct {
	cfg       *config.Config
	anomalies *anomaly.Logger
}

// RegionResult is the outcome of ingesting one region.
type RegionResult struct {
	Region     parcel.Region
	Resolution crs.Resolution
	Records    []*parcel.Record
	Stats      parcel.Stats
}

// Result is the outcome of a full run.
type Result struct {
	Regions   []RegionResult
	Stats     parcel.Stats
	Anomalies *anomaly.Logger
}

// New builds a pipeline from configuration. Categories listed in
// pipeline.drop_categories drop their rows; everything else is advisory.
func New(cfg *config.Config) *Pipeline {
	policy := anomaly.DefaultPolicy()
	if len(cfg.Pipeline.DropCategories) > 0 {
		policy = anomaly.Policy{}
		for _, c := range cfg.Pipeline.DropCategories {
			policy[anomaly.Category(c)] = anomaly.Drop
		}
	}
	return &Pipeline{
		cfg:       cfg,
		anomalies: anomaly.NewLogger(policy, cfg.Pipeline.KeepAnomalies),
	}
}

// Run ingests both regions. A region whose source data is missing is
// skipped with a warning; the run fails only when neither region has
// source data.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{Anomalies: p.anomalies}

	var unavailable int
	for _, region := range []parcel.Region{parcel.RegionCity, parcel.RegionCounty} {
		rr, err := p.IngestRegion(ctx, region)
		if err != nil {
			if errors.Is(err, ErrSourceDataUnavailable) {
				unavailable++
				zap.L().Warn("skipping region: source data unavailable",
					zap.String("region", string(region)),
					zap.String("error", eris.ToString(err, false)))
				continue
			}
			return nil, err
		}
		res.Regions = append(res.Regions, *rr)
		res.Stats.Add(rr.Stats)
	}

	if unavailable == 2 {
		return nil, eris.Wrap(ErrSourceDataUnavailable, "pipeline: no region has source data")
	}
	return res, nil
}

// IngestRegion ingests a single region end to end.
func (p *Pipeline) IngestRegion(ctx context.Context, region parcel.Region) (*RegionResult, error) {
	rc := p.cfg.Region(region)

	ds, err := p.loadDataset(region, rc)
	if err != nil {
		return nil, err
	}

	resolution := crs.Resolve(rc.EPSG, ds.SidecarWKT, ds.Bounds, region)
	zap.L().Info("resolved source coordinate system",
		zap.String("region", string(region)),
		zap.Int("epsg", resolution.EPSG),
		zap.String("source", string(resolution.Source)),
		zap.Int("rows", len(ds.Rows)))

	records, stats, err := p.processRows(ctx, region, rc, ds, resolution.EPSG)
	if err != nil {
		return nil, err
	}

	return &RegionResult{
		Region:     region,
		Resolution: resolution,
		Records:    records,
		Stats:      stats,
	}, nil
}

func (p *Pipeline) loadDataset(region parcel.Region, rc config.RegionConfig) (*shapefile.Dataset, error) {
	if _, err := os.Stat(rc.ShapefilePath); err != nil {
		if p.cfg.Pipeline.AllowSynthetic {
			zap.L().Warn("shapefile missing, generating synthetic rows",
				zap.String("region", string(region)),
				zap.String("path", rc.ShapefilePath))
			return syntheticDataset(region, p.cfg.Pipeline.RecordLimit()), nil
		}
		return nil, eris.Wrapf(ErrSourceDataUnavailable, "pipeline: %s shapefile %s", region, rc.ShapefilePath)
	}

	ds, err := shapefile.Load(rc.ShapefilePath, p.cfg.Pipeline.RecordLimit())
	if err != nil {
		return nil, eris.Wrapf(ErrSourceDataUnavailable, "pipeline: load %s: %s", region, eris.ToString(err, false))
	}

	// The city publishes assessments in a separate CSV keyed by parcel
	// handle; fold it into the shapefile attributes before processing.
	if rc.CSVPath != "" {
		if _, err := os.Stat(rc.CSVPath); err == nil {
			if err := shapefile.JoinCSV(ds, rc.CSVPath, mapping.For(region).ParcelID); err != nil {
				return nil, eris.Wrapf(err, "pipeline: join %s csv", region)
			}
		} else {
			zap.L().Warn("attribute csv missing, continuing with shapefile attributes only",
				zap.String("region", string(region)),
				zap.String("path", rc.CSVPath))
		}
	}

	return ds, nil
}

// processRows shards the dataset across workers. Each worker owns its own
// projection transformer because PROJ handles are not goroutine safe.
func (p *Pipeline) processRows(ctx context.Context, region parcel.Region, rc config.RegionConfig, ds *shapefile.Dataset, epsg int) ([]*parcel.Record, parcel.Stats, error) {
	workers := p.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(ds.Rows) {
		workers = len(ds.Rows)
	}
	if workers == 0 {
		return nil, parcel.Stats{}, nil
	}

	defaults := address.Defaults{City: rc.DefaultCity, State: "MO", Zip: rc.DefaultZip}

	shardRecords := make([][]*parcel.Record, workers)
	shardStats := make([]parcel.Stats, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			tr, err := crs.NewTransformer(epsg)
			if err != nil {
				return eris.Wrapf(err, "pipeline: transformer for epsg %d", epsg)
			}
			defer tr.Close()

			extractor := geometry.NewExtractor(tr)
			asm := newAssembler(region, defaults, p.anomalies, ds.Path)

			stats := &shardStats[w]
			for i := w; i < len(ds.Rows); i += workers {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				row := ds.Rows[i]
				var geo *geometry.Result
				if row.Shape != nil {
					res, err := extractor.Extract(row.Shape)
					if err != nil {
						stats.GeometryFailures++
						id := row.Attrs[asm.cols.ParcelID]
						if p.anomalies.Observe(anomaly.GeometryFailure, region, id, "", eris.ToString(err, false)) == anomaly.Drop {
							continue
						}
					} else {
						geo = &res
					}
				}

				if rec := asm.assemble(row.Attrs, geo, stats); rec != nil {
					shardRecords[w] = append(shardRecords[w], rec)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, parcel.Stats{}, err
	}

	var stats parcel.Stats
	var records []*parcel.Record
	for w := 0; w < workers; w++ {
		records = append(records, shardRecords[w]...)
		stats.Add(shardStats[w])
	}

	zap.L().Info("region ingest complete",
		zap.String("region", string(region)),
		zap.Int("valid", len(records)),
		zap.Int("processed", stats.TotalProcessed))

	return records, stats, nil
}
