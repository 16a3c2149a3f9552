package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rpa-insights/internal/config"
	"rpa-insights/internal/logging"
	"rpa-insights/internal/mcp"
	"rpa-insights/internal/orchestrator"
	"rpa-insights/internal/service"
	"rpa-insights/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "rpa-insights",
	Short: "RPA-Insights analyzes robot utilization and finds scheduling quick wins",
	Long: `An MCP Server and CLI that turns RPA job executions into per-robot daily utilization,
recurring idle slots, underutilized time windows and week-over-week trends.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("storage", cfg.Storage.Backend).
			Msg("RPA-Insights starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, closeStore, err := openService()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize service")
		}
		defer closeStore()

		server := mcp.NewServer(cfg, svc, Version)
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("MCP server stopped")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// openService wires storage and the optional orchestrator client into a service.
func openService() (*service.Service, func(), error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	var source orchestrator.Client
	if cfg.Orchestrator.Configured() {
		source, err = orchestrator.NewClient(cfg.Orchestrator)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
	} else {
		log.Debug().Msg("Orchestrator credentials missing, job sync disabled")
	}

	svc, err := service.New(store, source, cfg.Analytics)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

// runWithService opens the service for the duration of fn.
func runWithService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(cmd.Context(), svc)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
