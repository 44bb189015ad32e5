package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-pipeline/internal/index"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
	"github.com/sells-group/parcel-pipeline/internal/pipeline"
)

var (
	ingestSuffix       string
	ingestIndexPath    string
	ingestRecordsPath  string
	ingestGeometryPath string
	ingestDryRun       bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest parcel shapefiles and build the address index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start := time.Now()
		version := index.Version(start, ingestSuffix)

		p := pipeline.New(cfg)
		res, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		records := collectRecords(res)

		if !ingestDryRun {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			run, err := st.CreateRun(ctx, cfg.Pipeline.Dataset, version)
			if err != nil {
				return eris.Wrap(err, "create run")
			}

			n, err := st.UpsertRecords(ctx, run.ID, records)
			if err != nil {
				ferr := st.FailRun(ctx, run.ID, err.Error())
				if ferr != nil {
					zap.L().Error("marking run failed", zap.Error(ferr))
				}
				return eris.Wrap(err, "persist records")
			}
			if err := st.CompleteRun(ctx, run.ID, &res.Stats); err != nil {
				return eris.Wrap(err, "complete run")
			}
			zap.L().Info("records persisted", zap.Int64("upserted", n), zap.String("run_id", run.ID))
		}

		outPath := ingestIndexPath
		if outPath == "" {
			outPath = cfg.Index.OutputPath
		}
		idx := index.Build(records, indexRegion(res), "parcel-pipeline", version, start)
		if err := idx.Write(outPath); err != nil {
			return eris.Wrap(err, "write index")
		}
		zap.L().Info("address index written",
			zap.String("path", outPath),
			zap.Int("addresses", idx.Metadata.TotalAddresses))

		recordsPath := ingestRecordsPath
		if recordsPath == "" {
			recordsPath = cfg.Index.RecordsPath
		}
		if err := index.WriteRecords(recordsPath, records); err != nil {
			return eris.Wrap(err, "write records")
		}
		zap.L().Info("records written", zap.String("path", recordsPath), zap.Int("records", len(records)))

		geometryPath := ingestGeometryPath
		if geometryPath == "" {
			geometryPath = cfg.Index.GeometryPath
		}
		if err := index.WriteGeometryMap(geometryPath, records); err != nil {
			return eris.Wrap(err, "write geometry map")
		}
		zap.L().Info("geometry map written", zap.String("path", geometryPath))

		fmt.Fprintln(os.Stdout, pipeline.FormatReport(res, version, time.Since(start)))
		return nil
	},
}

// collectRecords flattens the per-region results into one slice.
func collectRecords(res *pipeline.Result) []parcel.Record {
	var out []parcel.Record
	for _, rr := range res.Regions {
		for _, rec := range rr.Records {
			out = append(out, *rec)
		}
	}
	return out
}

// indexRegion labels the index with the regions it covers.
func indexRegion(res *pipeline.Result) string {
	if len(res.Regions) == 1 {
		return string(res.Regions[0].Region)
	}
	return "both"
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSuffix, "version-suffix", "", "suffix appended to the index version")
	ingestCmd.Flags().StringVar(&ingestIndexPath, "index-out", "", "index output path (default from config)")
	ingestCmd.Flags().StringVar(&ingestRecordsPath, "records-out", "", "record dump output path (default from config)")
	ingestCmd.Flags().StringVar(&ingestGeometryPath, "geometry-out", "", "geometry map output path (default from config)")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "skip the database, only write the index and report")
	rootCmd.AddCommand(ingestCmd)
}
