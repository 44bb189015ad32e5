package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

var statsLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored record counts and recent ingest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		counts, err := st.CountByRegion(ctx)
		if err != nil {
			return eris.Wrap(err, "count records")
		}
		total := 0
		for _, region := range []parcel.Region{parcel.RegionCity, parcel.RegionCounty} {
			fmt.Fprintf(os.Stdout, "%s: %d records\n", region, counts[region])
			total += counts[region]
		}
		fmt.Fprintf(os.Stdout, "total: %d records\n\n", total)

		runs, err := st.ListRuns(ctx, statsLimit)
		if err != nil {
			return eris.Wrap(err, "list runs")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func formatRuns(w io.Writer, runs []parcel.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVERSION\tDATASET\tSTATUS\tPROCESSED\tVALID\tSTARTED")
	for _, r := range runs {
		processed, valid := "-", "-"
		if r.Stats != nil {
			processed = fmt.Sprintf("%d", r.Stats.TotalProcessed)
			valid = fmt.Sprintf("%d", r.Stats.ValidAddresses)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Version, r.Dataset, r.Status, processed, valid,
			r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

// -- stats run --

var statsRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show full details of one ingest run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get run")
		}

		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal run")
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "number of runs to list")
	statsCmd.AddCommand(statsRunCmd)
	rootCmd.AddCommand(statsCmd)
}
