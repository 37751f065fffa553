// Package history archives per-run summary rows into Postgres. Archiving is
// optional; with no DSN configured the suite runs exactly the same without
// it.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"probe-accuracy/internal/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS probe_runs (
    run_id      text        NOT NULL,
    recorded_at timestamptz NOT NULL,
    probe       text        NOT NULL,
    test        text        NOT NULL,
    min_z       double precision NOT NULL,
    max_z       double precision NOT NULL,
    first_z     double precision NOT NULL,
    last_z      double precision NOT NULL,
    mean_z      double precision NOT NULL,
    std_z       double precision,
    sample_count integer    NOT NULL,
    z_range     double precision NOT NULL,
    z_drift     double precision NOT NULL,
    PRIMARY KEY (run_id, test)
)`

// Archive writes finished runs to a shared database so probe performance
// can be compared across maintenance sessions.
type Archive struct {
	pool *pgxpool.Pool
}

// Open connects and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect history db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}
	return &Archive{pool: pool}, nil
}

// Record inserts one summary row per test. A re-run under the same run id
// overwrites its previous rows.
func (a *Archive) Record(ctx context.Context, runID, probe string, rows map[string]stats.SummaryRow, order []string) error {
	if a == nil {
		return nil
	}
	now := time.Now().UTC()
	for _, test := range order {
		row, ok := rows[test]
		if !ok {
			continue
		}
		_, err := a.pool.Exec(ctx,
			`INSERT INTO probe_runs
			   (run_id,recorded_at,probe,test,min_z,max_z,first_z,last_z,mean_z,std_z,sample_count,z_range,z_drift)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			 ON CONFLICT (run_id, test) DO UPDATE SET
			   recorded_at=EXCLUDED.recorded_at, probe=EXCLUDED.probe,
			   min_z=EXCLUDED.min_z, max_z=EXCLUDED.max_z,
			   first_z=EXCLUDED.first_z, last_z=EXCLUDED.last_z,
			   mean_z=EXCLUDED.mean_z, std_z=EXCLUDED.std_z,
			   sample_count=EXCLUDED.sample_count,
			   z_range=EXCLUDED.z_range, z_drift=EXCLUDED.z_drift`,
			runID, now, probe, test, row.Min, row.Max, row.First, row.Last,
			row.Mean, nullNaN(row.Std), row.Count, row.Range, row.Drift)
		if err != nil {
			return fmt.Errorf("record run %s test %q: %w", runID, test, err)
		}
	}
	return nil
}

func (a *Archive) Close() {
	if a != nil && a.pool != nil {
		a.pool.Close()
	}
}

// nullNaN maps NaN (single-sample std) to SQL NULL.
func nullNaN(v float64) any {
	if v != v {
		return nil
	}
	return v
}
