package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rpa-insights/internal/jobs"
	"rpa-insights/internal/stats"

	"github.com/rs/zerolog/log"
)

// DailyUtilizationFile holds the persisted daily rows of the file backend.
const DailyUtilizationFile = "daily_utilization.json"

type dayRobot struct {
	date  string
	robot string
}

// FileStore keeps jobs in the JSONL job cache and daily rows in a JSON file,
// both written through an atomic rename.
type FileStore struct {
	dir  string
	jobs *jobs.Store

	mu    sync.Mutex
	daily map[dayRobot]stats.DailyUtilization
}

// OpenFileStore loads the caches found in dir.
func OpenFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	s := &FileStore{
		dir:   dir,
		jobs:  jobs.NewStore(),
		daily: make(map[dayRobot]stats.DailyUtilization),
	}
	if err := s.jobs.Load(dir); err != nil {
		return nil, err
	}
	if err := s.loadDaily(); err != nil {
		return nil, err
	}
	return s, nil
}

func keyOf(r stats.DailyUtilization) dayRobot {
	return dayRobot{date: stats.DateOf(r.Date).Format(time.DateOnly), robot: r.RobotKey}
}

func (s *FileStore) loadDaily() error {
	path := filepath.Join(s.dir, DailyUtilizationFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read daily utilization: %w", err)
	}

	var rows []stats.DailyUtilization
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse daily utilization: %w", err)
	}
	for _, r := range rows {
		s.daily[keyOf(r)] = r
	}
	log.Debug().Str("path", path).Int("rows", len(rows)).Msg("Loaded daily utilization")
	return nil
}

// UpsertJobs adds or replaces jobs by key and rewrites the job cache.
func (s *FileStore) UpsertJobs(_ context.Context, batch []jobs.Job) (int, error) {
	n := s.jobs.Upsert(batch)
	if n == 0 {
		return 0, nil
	}
	if err := s.jobs.Save(s.dir); err != nil {
		return 0, err
	}
	return n, nil
}

// ListJobs returns the cached jobs overlapping [from, to).
func (s *FileStore) ListJobs(_ context.Context, from, to time.Time) ([]jobs.Job, error) {
	return s.jobs.InRange(from, to), nil
}

// UpsertDailyUtilization writes the batch into a copy of the table and swaps it in only
// after the file was written, so a failed write leaves the previous state untouched.
func (s *FileStore) UpsertDailyUtilization(_ context.Context, rows []stats.DailyUtilization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[dayRobot]stats.DailyUtilization, len(s.daily)+len(rows))
	for k, v := range s.daily {
		next[k] = v
	}
	for _, r := range rows {
		if r.RobotKey == "" {
			return fmt.Errorf("daily utilization row for %s has no robot key", r.Date.Format(time.DateOnly))
		}
		r.Date = stats.DateOf(r.Date)
		next[keyOf(r)] = r
	}

	if err := s.writeDaily(next); err != nil {
		return err
	}
	s.daily = next
	return nil
}

func (s *FileStore) writeDaily(table map[dayRobot]stats.DailyUtilization) error {
	rows := make([]stats.DailyUtilization, 0, len(table))
	for _, r := range table {
		rows = append(rows, r)
	}
	stats.SortDailyUtilization(rows)

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode daily utilization: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := filepath.Join(s.dir, DailyUtilizationFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write daily utilization: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename daily utilization file: %w", err)
	}
	return nil
}

// ListDailyUtilization returns rows with from <= date <= to.
func (s *FileStore) ListDailyUtilization(_ context.Context, from, to time.Time) ([]stats.DailyUtilization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lo := stats.DateOf(from)
	hi := stats.DateOf(to)
	var rows []stats.DailyUtilization
	for _, r := range s.daily {
		if r.Date.Before(lo) || r.Date.After(hi) {
			continue
		}
		rows = append(rows, r)
	}
	stats.SortDailyUtilization(rows)
	return rows, nil
}

// Close is a no-op; every write is flushed immediately.
func (s *FileStore) Close() error {
	return nil
}
