// Package anomaly is the single funnel for data-quality findings. Every
// stage that notices something off about a row reports it here as a typed
// record instead of printing or silently skipping, and the per-category
// policy decides whether the row is dropped or kept with a flag.
package anomaly

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Category identifies one kind of data-quality finding.
type Category string

const (
	MissingStreet          Category = "missing_street"
	MissingNumber          Category = "missing_number"
	POBox                  Category = "po_box"
	HyphenatedRange        Category = "hyphenated_range"
	FractionalAddress      Category = "fractional_address"
	InvalidZip             Category = "invalid_zip"
	StandardizationFailure Category = "standardization_failure"
	ForeignOwner           Category = "foreign_owner"
	GeometryFailure        Category = "geometry_failure"
)

// Action is what the pipeline does with a row that triggered a category.
type Action string

const (
	// Drop excludes the row from output.
	Drop Action = "drop"
	// Advisory keeps the row and only records the finding.
	Advisory Action = "advisory"
)

// Record is one finding tied to a source row.
type Record struct {
	Category Category      `json:"category"`
	Region   parcel.Region `json:"region"`
	ParcelID string        `json:"parcel_id"`
	RawValue string        `json:"raw_value,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Action   Action        `json:"action"`
}

// Policy maps categories to actions. Categories absent from the map fall
// back to Advisory, so a new category never silently drops rows.
type Policy map[Category]Action

// DefaultPolicy drops rows that cannot produce a usable mailing address
// and keeps everything else flagged.
func DefaultPolicy() Policy {
	return Policy{
		MissingStreet:          Drop,
		MissingNumber:          Drop,
		StandardizationFailure: Drop,
		POBox:                  Advisory,
		HyphenatedRange:        Advisory,
		FractionalAddress:      Advisory,
		InvalidZip:             Advisory,
		ForeignOwner:           Advisory,
		GeometryFailure:        Advisory,
	}
}

func (p Policy) ActionFor(c Category) Action {
	if a, ok := p[c]; ok {
		return a
	}
	return Advisory
}

// Sink receives anomaly records.
type Sink interface {
	Report(rec Record)
}

// Logger reports each record through zap and keeps per-category counts.
// Safe for use from concurrent pipeline shards.
type Logger struct {
	policy Policy
	log    *zap.Logger

	mu      sync.Mutex
	counts  map[Category]int
	records []Record
	keep    bool
}

// NewLogger builds a Logger over the given policy. When keepRecords is
// set, every record is retained for the run report; large ingests leave
// it off and rely on the counts.
func NewLogger(policy Policy, keepRecords bool) *Logger {
	return &Logger{
		policy: policy,
		log:    zap.L().Named("anomaly"),
		counts: make(map[Category]int),
		keep:   keepRecords,
	}
}

// Policy returns the policy the logger was built with.
func (l *Logger) Policy() Policy {
	return l.policy
}

// Observe records a finding and returns the action the caller should take.
func (l *Logger) Observe(c Category, region parcel.Region, parcelID, rawValue, detail string) Action {
	rec := Record{
		Category: c,
		Region:   region,
		ParcelID: parcelID,
		RawValue: rawValue,
		Detail:   detail,
		Action:   l.policy.ActionFor(c),
	}
	l.Report(rec)
	return rec.Action
}

func (l *Logger) Report(rec Record) {
	l.mu.Lock()
	l.counts[rec.Category]++
	if l.keep {
		l.records = append(l.records, rec)
	}
	l.mu.Unlock()

	l.log.Debug("anomaly",
		zap.String("category", string(rec.Category)),
		zap.String("region", string(rec.Region)),
		zap.String("parcel_id", rec.ParcelID),
		zap.String("action", string(rec.Action)),
		zap.String("raw_value", rec.RawValue),
	)
}

// Counts returns a copy of the per-category tallies.
func (l *Logger) Counts() map[Category]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Category]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Records returns the retained records, nil unless keepRecords was set.
func (l *Logger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.records) == 0 {
		return nil
	}
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}
