package stats

import (
	"errors"
	"fmt"
)

// Priority tiers for quick-win findings.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Settings carries the fleet economics and detection thresholds.
// It is passed explicitly into every analysis; there are no package-level knobs.
type Settings struct {
	// HourlyValue is the monetary value of one recovered robot hour.
	HourlyValue float64 `json:"hourly_value"`
	// Currency is a display label for monetary values (e.g. "EUR").
	Currency string `json:"currency"`
	// WeeksPerMonth converts weekly hours into monthly value.
	WeeksPerMonth float64 `json:"weeks_per_month"`

	// IdleMinutesThreshold is the per-day idle minutes an hour slot needs to count as idle,
	// and the floor for the slot's average idle minutes.
	IdleMinutesThreshold float64 `json:"idle_minutes_threshold"`
	// MinIdleDays is how many days of the lookback a slot must be idle to qualify.
	MinIdleDays int `json:"min_idle_days"`
	// WindowTargetUtilization is the target fraction (0..1] for broad time windows.
	WindowTargetUtilization float64 `json:"window_target_utilization"`

	// HighImpactThreshold and MediumImpactThreshold split monthly impact into priority tiers.
	HighImpactThreshold   float64 `json:"high_impact_threshold"`
	MediumImpactThreshold float64 `json:"medium_impact_threshold"`

	QuickWinsLookbackDays  int `json:"quickwins_lookback_days"`
	SuggestionLookbackDays int `json:"suggestion_lookback_days"`
	TrendsLookbackDays     int `json:"trends_lookback_days"`

	// MaxSuggestions caps the suggested processes per finding.
	MaxSuggestions int `json:"max_suggestions"`
	// MinSuggestionMinutes is the shortest process duration worth suggesting.
	MinSuggestionMinutes float64 `json:"min_suggestion_minutes"`
	// WindowSuggestionCeilingMinutes is the slot size used for window findings.
	WindowSuggestionCeilingMinutes float64 `json:"window_suggestion_ceiling_minutes"`

	// RobotMarker identifies production robots by substring of the robot key.
	RobotMarker string `json:"robot_marker"`
}

// DefaultSettings returns the stock thresholds.
func DefaultSettings() Settings {
	return Settings{
		HourlyValue:                    50.0,
		Currency:                       "EUR",
		WeeksPerMonth:                  4.33,
		IdleMinutesThreshold:           30.0,
		MinIdleDays:                    4,
		WindowTargetUtilization:        0.40,
		HighImpactThreshold:            1000.0,
		MediumImpactThreshold:          500.0,
		QuickWinsLookbackDays:          7,
		SuggestionLookbackDays:         90,
		TrendsLookbackDays:             90,
		MaxSuggestions:                 5,
		MinSuggestionMinutes:           1.0,
		WindowSuggestionCeilingMinutes: 90.0,
		RobotMarker:                    "RPA-",
	}
}

// Validate checks the settings before any computation runs.
func (s Settings) Validate() error {
	var errs []error
	if s.HourlyValue < 0 {
		errs = append(errs, fmt.Errorf("hourly value must not be negative, got %v", s.HourlyValue))
	}
	if s.WeeksPerMonth <= 0 {
		errs = append(errs, fmt.Errorf("weeks per month must be positive, got %v", s.WeeksPerMonth))
	}
	if s.IdleMinutesThreshold <= 0 || s.IdleMinutesThreshold > 60 {
		errs = append(errs, fmt.Errorf("idle minutes threshold must be in (0, 60], got %v", s.IdleMinutesThreshold))
	}
	if s.MinIdleDays <= 0 {
		errs = append(errs, fmt.Errorf("min idle days must be positive, got %d", s.MinIdleDays))
	}
	if s.WindowTargetUtilization <= 0 || s.WindowTargetUtilization > 1 {
		errs = append(errs, fmt.Errorf("window target utilization must be in (0, 1], got %v", s.WindowTargetUtilization))
	}
	if s.MediumImpactThreshold < 0 || s.HighImpactThreshold < s.MediumImpactThreshold {
		errs = append(errs, fmt.Errorf("impact thresholds must satisfy 0 <= medium (%v) <= high (%v)", s.MediumImpactThreshold, s.HighImpactThreshold))
	}
	if s.QuickWinsLookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("quick-wins lookback must be positive, got %d", s.QuickWinsLookbackDays))
	}
	if s.SuggestionLookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("suggestion lookback must be positive, got %d", s.SuggestionLookbackDays))
	}
	if s.TrendsLookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("trends lookback must be positive, got %d", s.TrendsLookbackDays))
	}
	if s.MaxSuggestions < 0 {
		errs = append(errs, fmt.Errorf("max suggestions must not be negative, got %d", s.MaxSuggestions))
	}
	if s.MinSuggestionMinutes < 0 || s.WindowSuggestionCeilingMinutes < s.MinSuggestionMinutes {
		errs = append(errs, fmt.Errorf("suggestion bounds must satisfy 0 <= min (%v) <= window ceiling (%v)", s.MinSuggestionMinutes, s.WindowSuggestionCeilingMinutes))
	}
	return errors.Join(errs...)
}

// MonthlyValue converts recoverable weekly hours into monetary value per month.
func (s Settings) MonthlyValue(hoursPerWeek float64) float64 {
	return hoursPerWeek * s.WeeksPerMonth * s.HourlyValue
}

// ClassifyPriority maps a monthly impact onto a priority tier.
func (s Settings) ClassifyPriority(impactPerMonth float64) string {
	switch {
	case impactPerMonth >= s.HighImpactThreshold:
		return PriorityHigh
	case impactPerMonth >= s.MediumImpactThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PriorityRank orders tiers for comparison (LOW < MEDIUM < HIGH).
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}
