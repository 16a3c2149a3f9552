package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rpa-insights/internal/orchestrator"
	"rpa-insights/internal/stats"
	"rpa-insights/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Orchestrator        orchestrator.Config
	Storage             storage.Config
	Analytics           stats.Settings
	DataPath            string
	LogDir              string
	CacheDir            string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := getEnv("CACHE_DIR", filepath.Join(dataPath, "cache"))

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	return FromEnv(dataPath, logDir, cacheDir)
}

// FromEnv builds the configuration from the process environment without touching .env files.
// Unparseable values are collected and returned together.
func FromEnv(dataPath, logDir, cacheDir string) (*AppConfig, error) {
	p := &parser{}

	analytics := stats.DefaultSettings()
	analytics.HourlyValue = p.float("RPA_HOURLY_VALUE", analytics.HourlyValue)
	analytics.Currency = getEnv("RPA_CURRENCY", analytics.Currency)
	analytics.WeeksPerMonth = p.float("RPA_WEEKS_PER_MONTH", analytics.WeeksPerMonth)
	analytics.IdleMinutesThreshold = p.float("RPA_IDLE_MINUTES_THRESHOLD", analytics.IdleMinutesThreshold)
	analytics.MinIdleDays = p.int("RPA_MIN_IDLE_DAYS", analytics.MinIdleDays)
	analytics.WindowTargetUtilization = p.float("RPA_WINDOW_TARGET_UTILIZATION", analytics.WindowTargetUtilization)
	analytics.HighImpactThreshold = p.float("RPA_HIGH_IMPACT_THRESHOLD", analytics.HighImpactThreshold)
	analytics.MediumImpactThreshold = p.float("RPA_MEDIUM_IMPACT_THRESHOLD", analytics.MediumImpactThreshold)
	analytics.QuickWinsLookbackDays = p.int("RPA_QUICKWINS_LOOKBACK_DAYS", analytics.QuickWinsLookbackDays)
	analytics.SuggestionLookbackDays = p.int("RPA_SUGGESTION_LOOKBACK_DAYS", analytics.SuggestionLookbackDays)
	analytics.TrendsLookbackDays = p.int("RPA_TRENDS_LOOKBACK_DAYS", analytics.TrendsLookbackDays)
	analytics.MaxSuggestions = p.int("RPA_MAX_SUGGESTIONS", analytics.MaxSuggestions)
	analytics.WindowSuggestionCeilingMinutes = p.float("RPA_WINDOW_SUGGESTION_CEILING_MINUTES", analytics.WindowSuggestionCeilingMinutes)
	analytics.RobotMarker = getEnv("RPA_ROBOT_MARKER", analytics.RobotMarker)

	timeoutSecs := p.int("UIPATH_TIMEOUT_SECONDS", 60)

	cfg := &AppConfig{
		Orchestrator: orchestrator.Config{
			OrgSlug:      getEnv("UIPATH_ORG_SLUG", ""),
			Tenant:       getEnv("UIPATH_TENANT_NAME", "DefaultTenant"),
			ClientID:     getEnv("UIPATH_CLIENT_ID", ""),
			ClientSecret: getEnv("UIPATH_CLIENT_SECRET", ""),
			FolderID:     getEnv("UIPATH_FOLDER_ID", ""),
			Scopes:       strings.Fields(getEnv("UIPATH_SCOPES", "")),
			BaseURL:      getEnv("UIPATH_BASE_URL", ""),
			TokenURL:     getEnv("UIPATH_TOKEN_URL", ""),
			Timeout:      time.Duration(timeoutSecs) * time.Second,
		},
		Storage: storage.Config{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", storage.BackendFile)),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			CacheDir:    cacheDir,
		},
		Analytics:           analytics,
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		EnableMermaidCharts: p.bool("ENABLE_MERMAID_CHARTS", false),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Analytics.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analytics settings: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

type parser struct {
	errs []error
}

func (p *parser) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (p *parser) float(key string, fallback float64) float64 {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, value))
		return fallback
	}
	return f
}

func (p *parser) int(key string, fallback int) int {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return fallback
	}
	return i
}

func (p *parser) bool(key string, fallback bool) bool {
	value, ok := p.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, value))
		return fallback
	}
	return b
}
