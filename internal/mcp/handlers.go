package mcp

import (
	"context"
	"errors"
	"time"

	"rpa-insights/internal/service"
	"rpa-insights/internal/stats"
	"rpa-insights/internal/visuals"
)

func (s *Server) handleComputeDailyUtilization(ctx context.Context) (map[string]interface{}, error) {
	n, err := s.svc.ComputeDailyUtilization(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"rows_processed": n,
		"_guidance": []string{
			"Each row covers one (robot, day) pair; idle time is measured against 24 hours of availability.",
			"Call 'weekly_trends' next to see how utilization evolves week over week.",
		},
	}, nil
}

func (s *Server) handleFindQuickWins(ctx context.Context, days int) (map[string]interface{}, error) {
	report, err := s.svc.QuickWins(ctx, days)
	if err != nil {
		return nil, err
	}

	res := map[string]interface{}{
		"quick_wins": report,
		"summary":    quickWinsSummary(report),
		"_guidance": []string{
			"Recurring idle slots are hours in which a robot was idle on most days of the lookback; they are the safest place to schedule new work.",
			"Underutilized windows compare busy robot-hours with the robot-hours available across all production robots.",
			"Impact values are estimates (hours x weeks per month x hourly value), not booked savings.",
		},
	}
	if report.Empty() {
		res["_guidance"] = []string{
			"No production robot was active in the lookback or every slot is already well used.",
			"Check that jobs were synced and that robot names carry the configured production marker.",
		}
	}

	if s.enableMermaidCharts {
		if chart := visuals.GenerateQuickWinImpactChart(report); chart != "" {
			res["visual_quick_win_impact"] = chart
		}
	}
	return res, nil
}

func quickWinsSummary(report stats.QuickWinsReport) map[string]interface{} {
	high := 0
	for _, r := range report.RecurringIdle {
		if r.Priority == stats.PriorityHigh {
			high++
		}
	}
	for _, u := range report.UnderutilizedWindows {
		if u.Priority == stats.PriorityHigh {
			high++
		}
	}
	return map[string]interface{}{
		"robots":                     len(report.Robots),
		"findings":                   len(report.RecurringIdle) + len(report.UnderutilizedWindows),
		"high_priority":              high,
		"total_potential_hours_week": round2(report.TotalPotentialHoursWeek),
		"total_impact_per_month":     round2(report.TotalImpactPerMonth),
		"currency":                   report.Currency,
	}
}

func (s *Server) handleWeeklyTrends(ctx context.Context, days int) (map[string]interface{}, error) {
	report, err := s.svc.WeeklyTrends(ctx, days)
	if err != nil {
		return nil, err
	}

	res := map[string]interface{}{
		"weekly_trends": report,
		"_guidance": []string{
			"Weeks are ISO calendar weeks; the first and last week may be partial.",
			"A positive idle_reduction_hours_week means idle time decreased between the first and the last week.",
		},
	}
	if !report.OverallTrend.Comparable {
		res["_guidance"] = []string{
			"Fewer than two weeks of data: the week-over-week comparison is unavailable, not zero.",
			"Run 'compute_daily_utilization' after syncing more history.",
		}
	}

	if s.enableMermaidCharts {
		if chart := visuals.GenerateWeeklyUtilizationChart(report, s.targetUtilization); chart != "" {
			res["visual_weekly_utilization"] = chart
			res["visual_idle_hours"] = visuals.GenerateIdleHoursChart(report)
		}
	}
	return res, nil
}

func (s *Server) handleFleetReport(ctx context.Context) (map[string]interface{}, error) {
	report, err := s.svc.FleetReport(ctx)
	if err != nil {
		return nil, err
	}

	res := map[string]interface{}{
		"generated_at":  report.GeneratedAt.Format(time.RFC3339),
		"rows_computed": report.RowsComputed,
		"quick_wins":    report.QuickWins,
		"summary":       quickWinsSummary(report.QuickWins),
		"weekly_trends": report.WeeklyTrends,
	}
	if s.enableMermaidCharts {
		if chart := visuals.GenerateQuickWinImpactChart(report.QuickWins); chart != "" {
			res["visual_quick_win_impact"] = chart
		}
		if chart := visuals.GenerateWeeklyUtilizationChart(report.WeeklyTrends, s.targetUtilization); chart != "" {
			res["visual_weekly_utilization"] = chart
		}
	}
	return res, nil
}

func (s *Server) handleSyncJobs(ctx context.Context, days int) (map[string]interface{}, error) {
	n, err := s.svc.SyncJobs(ctx, days)
	if err != nil {
		if errors.Is(err, service.ErrNoJobSource) {
			return nil, errors.New("orchestrator is not configured: set UIPATH_CLIENT_ID and UIPATH_CLIENT_SECRET")
		}
		return nil, err
	}
	return map[string]interface{}{
		"jobs_synced": n,
		"_guidance": []string{
			"Jobs are upserted by job key, so repeated syncs never duplicate records.",
			"Call 'compute_daily_utilization' next to refresh the daily rows.",
		},
	}, nil
}
