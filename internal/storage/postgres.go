package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rpa-insights/internal/jobs"
	"rpa-insights/internal/stats"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// NewPostgresConnection opens and pings a PostgreSQL pool.
func NewPostgresConnection(dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database url is required for the %s backend", BackendPostgres)
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// PostgresStore implements Store on the jobs and daily_utilization tables.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// DB exposes the pool for migrations.
func (s *PostgresStore) DB() *sqlx.DB {
	return s.db
}

type jobRow struct {
	JobKey      string         `db:"job_key"`
	RobotName   sql.NullString `db:"robot_name"`
	MachineName sql.NullString `db:"machine_name"`
	ProcessName sql.NullString `db:"process_name"`
	StartTime   time.Time      `db:"start_time"`
	EndTime     sql.NullTime   `db:"end_time"`
	State       sql.NullString `db:"state"`
}

func (r jobRow) toJob() jobs.Job {
	j := jobs.Job{
		Key:         r.JobKey,
		RobotName:   r.RobotName.String,
		MachineName: r.MachineName.String,
		ProcessName: r.ProcessName.String,
		Start:       jobs.Naive(r.StartTime),
		State:       r.State.String,
	}
	if r.EndTime.Valid {
		end := jobs.Naive(r.EndTime.Time)
		j.End = &end
	}
	return j
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const upsertJobQuery = `
	INSERT INTO jobs (job_key, robot_name, machine_name, process_name, start_time, end_time, state)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (job_key) DO UPDATE SET
		robot_name = EXCLUDED.robot_name,
		machine_name = EXCLUDED.machine_name,
		process_name = EXCLUDED.process_name,
		start_time = EXCLUDED.start_time,
		end_time = EXCLUDED.end_time,
		state = EXCLUDED.state,
		updated_at = NOW()
`

// UpsertJobs inserts or replaces jobs by key in a single transaction.
func (s *PostgresStore) UpsertJobs(ctx context.Context, batch []jobs.Job) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n := 0
	for _, j := range batch {
		if j.Key == "" || j.Start.IsZero() {
			continue
		}
		var end sql.NullTime
		if j.End != nil {
			end = sql.NullTime{Time: jobs.Naive(*j.End), Valid: true}
		}
		_, err := tx.ExecContext(ctx, upsertJobQuery,
			j.Key,
			nullString(j.RobotName),
			nullString(j.MachineName),
			nullString(j.ProcessName),
			jobs.Naive(j.Start),
			end,
			nullString(j.State),
		)
		if err != nil {
			return 0, fmt.Errorf("upsert job %s: %w", j.Key, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	log.Debug().Int("jobs", n).Msg("Upserted jobs")
	return n, nil
}

func nullBound(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: jobs.Naive(t), Valid: true}
}

// ListJobs returns jobs overlapping [from, to) ordered by start time. A zero bound is open.
func (s *PostgresStore) ListJobs(ctx context.Context, from, to time.Time) ([]jobs.Job, error) {
	query := `
		SELECT job_key, robot_name, machine_name, process_name, start_time, end_time, state
		FROM jobs
		WHERE ($2::timestamp IS NULL OR start_time < $2)
		  AND ($1::timestamp IS NULL OR end_time IS NULL OR end_time > $1)
		ORDER BY start_time, job_key
	`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, nullBound(from), nullBound(to)); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	out := make([]jobs.Job, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toJob())
	}
	return out, nil
}

const upsertDailyQuery = `
	INSERT INTO daily_utilization (date, robot_name, total_runtime_hours, idle_hours, utilization_percent)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (date, robot_name) DO UPDATE SET
		total_runtime_hours = EXCLUDED.total_runtime_hours,
		idle_hours = EXCLUDED.idle_hours,
		utilization_percent = EXCLUDED.utilization_percent,
		updated_at = NOW()
`

// UpsertDailyUtilization writes all rows in one transaction; any failure rolls back the batch.
func (s *PostgresStore) UpsertDailyUtilization(ctx context.Context, rows []stats.DailyUtilization) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, upsertDailyQuery,
			stats.DateOf(r.Date),
			r.RobotKey,
			r.TotalRuntimeHours,
			r.IdleHours,
			r.UtilizationPercent,
		)
		if err != nil {
			return fmt.Errorf("upsert daily utilization %s/%s: %w",
				r.Date.Format(time.DateOnly), r.RobotKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListDailyUtilization returns rows with from <= date <= to.
func (s *PostgresStore) ListDailyUtilization(ctx context.Context, from, to time.Time) ([]stats.DailyUtilization, error) {
	query := `
		SELECT date, robot_name, total_runtime_hours, idle_hours, utilization_percent
		FROM daily_utilization
		WHERE date >= $1 AND date <= $2
		ORDER BY date, robot_name
	`

	var rows []stats.DailyUtilization
	if err := s.db.SelectContext(ctx, &rows, query, stats.DateOf(from), stats.DateOf(to)); err != nil {
		return nil, fmt.Errorf("list daily utilization: %w", err)
	}
	for i := range rows {
		rows[i].Date = stats.DateOf(jobs.Naive(rows[i].Date))
	}
	return rows, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
