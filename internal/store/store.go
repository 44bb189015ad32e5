// Package store persists ingest runs and normalized parcel records,
// backed by either SQLite for single-machine use or PostgreSQL.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Store defines the persistence interface for the parcel pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, dataset, version string) (*parcel.Run, error)
	CompleteRun(ctx context.Context, runID string, stats *parcel.Stats) error
	FailRun(ctx context.Context, runID, errMsg string) error
	GetRun(ctx context.Context, runID string) (*parcel.Run, error)
	ListRuns(ctx context.Context, limit int) ([]parcel.Run, error)

	// Records
	UpsertRecords(ctx context.Context, runID string, records []parcel.Record) (int64, error)
	GetRecord(ctx context.Context, id string) (*parcel.Record, error)
	SearchAddresses(ctx context.Context, query string, limit int) ([]parcel.Record, error)
	CountByRegion(ctx context.Context) (map[parcel.Region]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from driver name and DSN.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "store: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("store: %s %s not found", entity, id)
	}
	return nil
}
