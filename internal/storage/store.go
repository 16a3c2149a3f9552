// Package storage persists job records and computed daily utilization.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rpa-insights/internal/jobs"
	"rpa-insights/internal/stats"
)

// Supported backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Store is the read/upsert interface the analytics run against.
//
// UpsertDailyUtilization is all-or-nothing: when any row fails, none of the batch is kept.
type Store interface {
	UpsertJobs(ctx context.Context, batch []jobs.Job) (int, error)
	// ListJobs returns jobs overlapping [from, to); jobs without an end are included
	// when they started before to. A zero bound leaves that side open.
	ListJobs(ctx context.Context, from, to time.Time) ([]jobs.Job, error)
	UpsertDailyUtilization(ctx context.Context, rows []stats.DailyUtilization) error
	// ListDailyUtilization returns rows with from <= date <= to, ordered by date and robot.
	ListDailyUtilization(ctx context.Context, from, to time.Time) ([]stats.DailyUtilization, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	DatabaseURL string
	CacheDir    string
}

// Open creates the configured store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return OpenFileStore(cfg.CacheDir)
	case BackendPostgres:
		db, err := NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
