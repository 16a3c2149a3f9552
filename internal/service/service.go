// Package service wires the analytics engine to job sources and storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rpa-insights/internal/orchestrator"
	"rpa-insights/internal/stats"
	"rpa-insights/internal/storage"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoJobSource is returned by SyncJobs when no orchestrator client is configured.
var ErrNoJobSource = errors.New("no job source configured")

// Service runs the analytics against a store.
type Service struct {
	store    storage.Store
	source   orchestrator.Client
	settings stats.Settings
	now      func() time.Time
}

// New validates settings and creates a service. source may be nil.
func New(store storage.Store, source orchestrator.Client, settings stats.Settings) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analytics settings: %w", err)
	}
	return &Service{
		store:    store,
		source:   source,
		settings: settings,
		now:      time.Now,
	}, nil
}

// SetClock replaces the wall clock used to anchor lookback windows.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Settings returns the analytics settings in effect.
func (s *Service) Settings() stats.Settings {
	return s.settings
}

func (s *Service) today() time.Time {
	return stats.DateOf(s.now())
}

// SyncJobs fetches the last days (today included) from the orchestrator and upserts them.
func (s *Service) SyncJobs(ctx context.Context, days int) (int, error) {
	if s.source == nil {
		return 0, ErrNoJobSource
	}
	if days <= 0 {
		days = s.settings.SuggestionLookbackDays
	}

	to := s.today()
	from := to.AddDate(0, 0, -(days - 1))
	batch, err := s.source.FetchJobs(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("fetch jobs: %w", err)
	}

	n, err := s.store.UpsertJobs(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("store jobs: %w", err)
	}
	log.Info().
		Int("jobs", n).
		Str("from", from.Format(time.DateOnly)).
		Str("to", to.Format(time.DateOnly)).
		Msg("Synced jobs")
	return n, nil
}

// ComputeDailyUtilization recomputes daily utilization from every stored job and upserts
// the rows. It returns the number of (robot, day) groups written.
func (s *Service) ComputeDailyUtilization(ctx context.Context) (int, error) {
	batch, err := s.store.ListJobs(ctx, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("load jobs: %w", err)
	}

	rows := stats.CalculateDailyUtilization(batch)
	if err := s.store.UpsertDailyUtilization(ctx, rows); err != nil {
		return 0, fmt.Errorf("store daily utilization: %w", err)
	}

	log.Info().Int("jobs", len(batch)).Int("rows", len(rows)).Msg("Computed daily utilization")
	return len(rows), nil
}

// QuickWins analyzes the raw jobs of the last lookbackDays full days.
// A non-positive lookbackDays uses the configured default.
func (s *Service) QuickWins(ctx context.Context, lookbackDays int) (stats.QuickWinsReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.settings.QuickWinsLookbackDays
	}
	now := s.now()
	today := stats.DateOf(now)

	span := max(lookbackDays, s.settings.SuggestionLookbackDays)
	batch, err := s.store.ListJobs(ctx, today.AddDate(0, 0, -span), today.AddDate(0, 0, 1))
	if err != nil {
		return stats.QuickWinsReport{}, fmt.Errorf("load jobs: %w", err)
	}

	report := stats.FindQuickWins(batch, lookbackDays, s.settings, now)
	log.Debug().
		Int("lookbackDays", lookbackDays).
		Int("recurringIdle", len(report.RecurringIdle)).
		Int("windows", len(report.UnderutilizedWindows)).
		Msg("Quick wins analyzed")
	return report, nil
}

// WeeklyTrends aggregates persisted daily rows of the last lookbackDays days (today included).
func (s *Service) WeeklyTrends(ctx context.Context, lookbackDays int) (stats.WeeklyTrendsReport, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.settings.TrendsLookbackDays
	}
	now := s.now()
	today := stats.DateOf(now)

	rows, err := s.store.ListDailyUtilization(ctx, today.AddDate(0, 0, -(lookbackDays-1)), today)
	if err != nil {
		return stats.WeeklyTrendsReport{}, fmt.Errorf("load daily utilization: %w", err)
	}
	return stats.CalculateWeeklyTrends(rows, lookbackDays, s.settings, now), nil
}

// FleetReport bundles a utilization refresh with quick wins and weekly trends.
type FleetReport struct {
	GeneratedAt  time.Time                `json:"generated_at"`
	RowsComputed int                      `json:"rows_computed"`
	QuickWins    stats.QuickWinsReport    `json:"quick_wins"`
	WeeklyTrends stats.WeeklyTrendsReport `json:"weekly_trends"`
}

// FleetReport refreshes daily utilization, then runs quick wins and weekly trends concurrently.
func (s *Service) FleetReport(ctx context.Context) (FleetReport, error) {
	report := FleetReport{GeneratedAt: s.now()}

	n, err := s.ComputeDailyUtilization(ctx)
	if err != nil {
		return FleetReport{}, err
	}
	report.RowsComputed = n

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		qw, err := s.QuickWins(gctx, 0)
		if err != nil {
			return err
		}
		report.QuickWins = qw
		return nil
	})
	g.Go(func() error {
		trends, err := s.WeeklyTrends(gctx, 0)
		if err != nil {
			return err
		}
		report.WeeklyTrends = trends
		return nil
	})
	if err := g.Wait(); err != nil {
		return FleetReport{}, err
	}
	return report, nil
}
