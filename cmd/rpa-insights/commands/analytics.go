package commands

import (
	"context"
	"fmt"
	"strconv"

	"rpa-insights/internal/service"
	"rpa-insights/internal/storage"

	"github.com/spf13/cobra"
)

var lookbackDays int

var syncCmd = &cobra.Command{
	Use:   "sync [days]",
	Short: "Fetch jobs of the last days from the orchestrator (default 90)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("days must be a positive integer, got %q", args[0])
			}
			days = n
		}
		return runWithService(cmd, func(ctx context.Context, svc *service.Service) error {
			n, err := svc.SyncJobs(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d jobs.\n", n)
			return nil
		})
	},
}

var utilizationCmd = &cobra.Command{
	Use:   "utilization",
	Short: "Recompute daily utilization from all stored jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithService(cmd, func(ctx context.Context, svc *service.Service) error {
			n, err := svc.ComputeDailyUtilization(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d daily utilization rows.\n", n)
			return nil
		})
	},
}

var quickwinsCmd = &cobra.Command{
	Use:   "quickwins",
	Short: "Find recurring idle slots and underutilized windows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithService(cmd, func(ctx context.Context, svc *service.Service) error {
			report, err := svc.QuickWins(ctx, lookbackDays)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Aggregate daily utilization into ISO weeks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithService(cmd, func(ctx context.Context, svc *service.Service) error {
			report, err := svc.WeeklyTrends(ctx, lookbackDays)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Refresh utilization and print quick wins and weekly trends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithService(cmd, func(ctx context.Context, svc *service.Service) error {
			report, err := svc.FleetReport(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations (postgres backend)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Backend != storage.BackendPostgres {
			return fmt.Errorf("migrate requires STORAGE_BACKEND=%s, got %q", storage.BackendPostgres, cfg.Storage.Backend)
		}
		return storage.MigrateURL(cfg.Storage.DatabaseURL)
	},
}

func init() {
	quickwinsCmd.Flags().IntVar(&lookbackDays, "days", 0, "lookback in full days before today (default from RPA_QUICKWINS_LOOKBACK_DAYS)")
	trendsCmd.Flags().IntVar(&lookbackDays, "days", 0, "lookback in days including today (default from RPA_TRENDS_LOOKBACK_DAYS)")

	rootCmd.AddCommand(syncCmd, utilizationCmd, quickwinsCmd, trendsCmd, reportCmd, migrateCmd)
}
