package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	dataset    TEXT NOT NULL,
	version    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      TEXT,
	error      TEXT,
	started_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS parcels (
	id           TEXT PRIMARY KEY,
	region       TEXT NOT NULL,
	full_address TEXT NOT NULL,
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	record       TEXT NOT NULL,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_parcels_region ON parcels(region);
CREATE INDEX IF NOT EXISTS idx_parcels_full_address ON parcels(full_address);
CREATE INDEX IF NOT EXISTS idx_parcels_run_id ON parcels(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, dataset, version string) (*parcel.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, dataset, version, status, started_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, dataset, version, string(parcel.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats *parcel.Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		string(parcel.RunStatusComplete), string(statsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(parcel.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*parcel.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset, version, status, stats, error, started_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]parcel.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset, version, status, stats, error, started_at, updated_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []parcel.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*parcel.Run, error) {
	var r parcel.Run
	var status string
	var statsJSON, errMsg sql.NullString
	if err := row.Scan(&r.ID, &r.Dataset, &r.Version, &status, &statsJSON, &errMsg, &r.StartedAt, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "store: get run")
		}
		return nil, eris.Wrap(err, "store: scan run")
	}
	r.Status = parcel.RunStatus(status)
	r.Error = errMsg.String
	if statsJSON.Valid && statsJSON.String != "" {
		r.Stats = &parcel.Stats{}
		if err := json.Unmarshal([]byte(statsJSON.String), r.Stats); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal run stats")
		}
	}
	return &r, nil
}

func (s *SQLiteStore) UpsertRecords(ctx context.Context, runID string, records []parcel.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO parcels (id, region, full_address, latitude, longitude, record, run_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			region = excluded.region,
			full_address = excluded.full_address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			record = excluded.record,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, rec := range records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: marshal record %s", rec.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, string(rec.Region), rec.FullAddress, rec.Latitude, rec.Longitude,
			string(recordJSON), runID, now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert record %s", rec.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit upsert")
	}
	return n, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*parcel.Record, error) {
	var recordJSON string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM parcels WHERE id = ?`, id).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	var rec parcel.Record
	if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal record %s", id)
	}
	return &rec, nil
}

func (s *SQLiteStore) SearchAddresses(ctx context.Context, query string, limit int) ([]parcel.Record, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM parcels WHERE full_address LIKE ? ORDER BY full_address LIMIT ?`,
		"%"+query+"%", limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search addresses")
	}
	defer rows.Close()

	var out []parcel.Record
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		var rec parcel.Record
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal record")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: search addresses")
}

func (s *SQLiteStore) CountByRegion(ctx context.Context) (map[parcel.Region]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT region, COUNT(*) FROM parcels GROUP BY region`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count by region")
	}
	defer rows.Close()

	counts := make(map[parcel.Region]int)
	for rows.Next() {
		var region string
		var n int
		if err := rows.Scan(&region, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		counts[parcel.Region(region)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: count by region")
}
