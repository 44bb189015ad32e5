package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/parcel-pipeline/internal/db"
	"github.com/sells-group/parcel-pipeline/internal/parcel"
	"github.com/sells-group/parcel-pipeline/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	// The database may still be coming up when the pipeline starts.
	err = resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	dataset    TEXT NOT NULL,
	version    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      JSONB,
	error      TEXT,
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS parcels (
	id           TEXT PRIMARY KEY,
	region       TEXT NOT NULL,
	full_address TEXT NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL,
	longitude    DOUBLE PRECISION NOT NULL,
	record       JSONB NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_parcels_region ON parcels(region);
CREATE INDEX IF NOT EXISTS idx_parcels_full_address ON parcels(full_address);
CREATE INDEX IF NOT EXISTS idx_parcels_run_id ON parcels(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, dataset, version string) (*parcel.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, dataset, version, status, started_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, dataset, version, string(parcel.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &parcel.Run{
		ID:        id,
		Dataset:   dataset,
		Version:   version,
		Status:    parcel.RunStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats *parcel.Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(parcel.RunStatusComplete), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(parcel.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*parcel.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, dataset, version, status, stats, error, started_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)

	var r parcel.Run
	var status string
	var statsJSON []byte
	var errMsg *string
	if err := row.Scan(&r.ID, &r.Dataset, &r.Version, &status, &statsJSON, &errMsg, &r.StartedAt, &r.UpdatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	r.Status = parcel.RunStatus(status)
	if errMsg != nil {
		r.Error = *errMsg
	}
	if len(statsJSON) > 0 {
		r.Stats = &parcel.Stats{}
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run stats")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]parcel.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset, version, status, stats, error, started_at, updated_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []parcel.Run
	for rows.Next() {
		var r parcel.Run
		var status string
		var statsJSON []byte
		var errMsg *string
		if err := rows.Scan(&r.ID, &r.Dataset, &r.Version, &status, &statsJSON, &errMsg, &r.StartedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = parcel.RunStatus(status)
		if errMsg != nil {
			r.Error = *errMsg
		}
		if len(statsJSON) > 0 {
			r.Stats = &parcel.Stats{}
			if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal run stats")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

var parcelColumns = []string{
	"id", "region", "full_address", "latitude", "longitude", "record", "run_id", "updated_at",
}

func (s *PostgresStore) UpsertRecords(ctx context.Context, runID string, records []parcel.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal record %s", rec.ID)
		}
		rows = append(rows, []any{
			rec.ID, string(rec.Region), rec.FullAddress, rec.Latitude, rec.Longitude,
			recordJSON, runID, now,
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "parcels",
		Columns:      parcelColumns,
		ConflictKeys: []string{"id"},
	}, rows)
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*parcel.Record, error) {
	var recordJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM parcels WHERE id = $1`, id).Scan(&recordJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	var rec parcel.Record
	if err := json.Unmarshal(recordJSON, &rec); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal record %s", id)
	}
	return &rec, nil
}

func (s *PostgresStore) SearchAddresses(ctx context.Context, query string, limit int) ([]parcel.Record, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM parcels WHERE full_address ILIKE $1 ORDER BY full_address LIMIT $2`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search addresses")
	}
	defer rows.Close()

	var out []parcel.Record
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		var rec parcel.Record
		if err := json.Unmarshal(recordJSON, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: search addresses")
}

func (s *PostgresStore) CountByRegion(ctx context.Context) (map[parcel.Region]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT region, COUNT(*) FROM parcels GROUP BY region`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by region")
	}
	defer rows.Close()

	counts := make(map[parcel.Region]int)
	for rows.Next() {
		var region string
		var n int64
		if err := rows.Scan(&region, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		counts[parcel.Region(region)] = int(n)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: count by region")
}
