package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rpa-insights/internal/jobs"
	"rpa-insights/internal/stats"
)

func TestFileStore_DailyUtilizationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	first := []stats.DailyUtilization{
		stats.NewDailyUtilization(testDay, "RPA-A", 6*time.Hour),
		stats.NewDailyUtilization(testDay.AddDate(0, 0, 1), "RPA-A", 3*time.Hour),
	}
	if err := store.UpsertDailyUtilization(ctx, first); err != nil {
		t.Fatalf("UpsertDailyUtilization() error = %v", err)
	}

	// Recomputing a day replaces the existing row.
	update := []stats.DailyUtilization{stats.NewDailyUtilization(testDay, "RPA-A", 12*time.Hour)}
	if err := store.UpsertDailyUtilization(ctx, update); err != nil {
		t.Fatalf("UpsertDailyUtilization() error = %v", err)
	}

	reopened, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	rows, err := reopened.ListDailyUtilization(ctx, testDay, testDay.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListDailyUtilization() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].TotalRuntimeHours != 12 {
		t.Errorf("first row runtime = %v, want 12", rows[0].TotalRuntimeHours)
	}
}

func TestFileStore_UpsertDailyUtilization_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	bad := []stats.DailyUtilization{
		stats.NewDailyUtilization(testDay, "RPA-A", time.Hour),
		{Date: testDay},
	}
	if err := store.UpsertDailyUtilization(ctx, bad); err == nil {
		t.Fatal("expected an error for a row without robot key")
	}

	rows, _ := store.ListDailyUtilization(ctx, testDay, testDay)
	if len(rows) != 0 {
		t.Errorf("expected no rows after a failed batch, got %+v", rows)
	}
	if _, err := os.Stat(filepath.Join(dir, DailyUtilizationFile)); !os.IsNotExist(err) {
		t.Errorf("daily file should not be written, stat err = %v", err)
	}
}

func TestFileStore_Jobs(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("OpenFileStore() error = %v", err)
	}

	end := testDay.Add(9 * time.Hour)
	n, err := store.UpsertJobs(ctx, []jobs.Job{
		{Key: "k1", MachineName: "RPA-A", ProcessName: "Invoice", Start: testDay.Add(8 * time.Hour), End: &end},
		{Key: "k2", MachineName: "RPA-A", ProcessName: "Old", Start: testDay.AddDate(0, 0, -3)},
	})
	if err != nil || n != 2 {
		t.Fatalf("UpsertJobs() = %d, %v", n, err)
	}

	reopened, err := OpenFileStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	got, err := reopened.ListJobs(ctx, testDay, testDay.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	// The running job from three days ago still overlaps the range.
	if len(got) != 2 {
		t.Fatalf("expected 2 jobs, got %+v", got)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "mongo"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	if _, err := Open(Config{Backend: BackendPostgres}); err == nil {
		t.Error("expected an error without database url")
	}
}
