package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/parcel-pipeline/internal/anomaly"
)

// FormatReport generates a human-readable ingest report.
func FormatReport(res *Result, version string, elapsed time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Parcel Ingest Report: %s\n", version)
	fmt.Fprintf(&b, "Elapsed: %s\n\n", elapsed.Round(time.Millisecond))

	// Summary.
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Records processed: %d\n", res.Stats.TotalProcessed)
	fmt.Fprintf(&b, "- Valid addresses: %d\n", res.Stats.ValidAddresses)
	fmt.Fprintf(&b, "- Geometry failures: %d\n\n", res.Stats.GeometryFailures)

	// Per-region results.
	b.WriteString("## Regions\n")
	for _, rr := range res.Regions {
		fmt.Fprintf(&b, "- %s: %d valid of %d processed (source CRS %s)\n",
			rr.Region, len(rr.Records), rr.Stats.TotalProcessed, rr.Resolution)
	}
	b.WriteString("\n")

	// Anomaly breakdown.
	b.WriteString("## Anomalies\n")
	counts := res.Anomalies.Counts()
	if len(counts) == 0 {
		b.WriteString("None observed.\n")
	} else {
		cats := make([]string, 0, len(counts))
		for c := range counts {
			cats = append(cats, string(c))
		}
		sort.Strings(cats)

		for _, c := range cats {
			cat := anomaly.Category(c)
			fmt.Fprintf(&b, "- %s: %d (%s)\n", c, counts[cat], res.Anomalies.Policy().ActionFor(cat))
		}
	}

	return b.String()
}
