package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DaysInput selects an optional lookback window.
type DaysInput struct {
	Days int `json:"days,omitempty" jsonschema:"Optional lookback in days. Omit to use the configured default."`
}

// NoInput is used by tools without arguments.
type NoInput struct{}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name: "compute_daily_utilization",
		Description: "Recompute per-robot daily utilization (24h availability) from all stored jobs and upsert the results. " +
			"Overlapping jobs of the same robot are merged, so runtime is never double counted. " +
			"Run this after 'sync_jobs' and before 'weekly_trends'.",
	}, s.toolComputeDailyUtilization)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "find_quick_wins",
		Description: "Find recurring idle hour slots per production robot and underutilized time windows (night, morning, afternoon, evening) " +
			"over the last N full days (default 7, today excluded). Each finding carries the potential hours per week, " +
			"the monthly monetary impact, a priority and processes short enough to fill the gap.",
	}, s.toolFindQuickWins)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "weekly_trends",
		Description: "Aggregate persisted daily utilization into ISO weeks (default lookback 90 days, today included) and compare the first and last week. " +
			"When fewer than two weeks exist the comparison is unavailable ('comparable' is false), which is not the same as 'no change'.",
	}, s.toolWeeklyTrends)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "fleet_report",
		Description: "Refresh daily utilization, then return quick wins and weekly trends together in one report.",
	}, s.toolFleetReport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "sync_jobs",
		Description: "Fetch job executions of the last N days (default 90, today included) from the orchestrator and upsert them by job key. " +
			"Requires orchestrator client credentials.",
	}, s.toolSyncJobs)
}

func (s *Server) toolComputeDailyUtilization(ctx context.Context, _ *sdk.CallToolRequest, _ NoInput) (*sdk.CallToolResult, any, error) {
	return toResult(s.handleComputeDailyUtilization(ctx))
}

func (s *Server) toolFindQuickWins(ctx context.Context, _ *sdk.CallToolRequest, in DaysInput) (*sdk.CallToolResult, any, error) {
	return toResult(s.handleFindQuickWins(ctx, in.Days))
}

func (s *Server) toolWeeklyTrends(ctx context.Context, _ *sdk.CallToolRequest, in DaysInput) (*sdk.CallToolResult, any, error) {
	return toResult(s.handleWeeklyTrends(ctx, in.Days))
}

func (s *Server) toolFleetReport(ctx context.Context, _ *sdk.CallToolRequest, _ NoInput) (*sdk.CallToolResult, any, error) {
	return toResult(s.handleFleetReport(ctx))
}

func (s *Server) toolSyncJobs(ctx context.Context, _ *sdk.CallToolRequest, in DaysInput) (*sdk.CallToolResult, any, error) {
	return toResult(s.handleSyncJobs(ctx, in.Days))
}
