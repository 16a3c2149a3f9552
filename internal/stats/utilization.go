package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"rpa-insights/internal/jobs"
)

// HoursPerDay is the availability basis: robots are expected to run around the clock.
const HoursPerDay = 24.0

// DailyUtilization is the utilization of one robot on one calendar day.
type DailyUtilization struct {
	Date               time.Time `json:"date" db:"date"`
	RobotKey           string    `json:"robot" db:"robot_name"`
	TotalRuntimeHours  float64   `json:"total_runtime_hours" db:"total_runtime_hours"`
	IdleHours          float64   `json:"idle_hours" db:"idle_hours"`
	UtilizationPercent float64   `json:"utilization_percent" db:"utilization_percent"`
}

// NewDailyUtilization derives the row for a robot-day from its busy time.
// Runtime is capped at 24h and runtime + idle always equals 24h.
func NewDailyUtilization(date time.Time, robotKey string, busy time.Duration) DailyUtilization {
	runtime := math.Min(HoursPerDay, busy.Hours())
	if runtime < 0 {
		runtime = 0
	}
	return DailyUtilization{
		Date:               DateOf(date),
		RobotKey:           robotKey,
		TotalRuntimeHours:  runtime,
		IdleHours:          math.Max(0, HoursPerDay-runtime),
		UtilizationPercent: runtime / HoursPerDay * 100.0,
	}
}

// CalculateDailyUtilization computes one row per (robot, date) touched by a usable job.
// Rows are ordered by date and then robot key.
func CalculateDailyUtilization(batch []jobs.Job) []DailyUtilization {
	grouped := NormalizeJobs(batch)

	rows := make([]DailyUtilization, 0, len(grouped))
	for rd, merged := range grouped {
		busy := BusyDuration(merged, DaySpan(rd.Date))
		rows = append(rows, NewDailyUtilization(rd.Date, rd.RobotKey, busy))
	}

	SortDailyUtilization(rows)
	return rows
}

// SortDailyUtilization orders rows by date and then robot key.
func SortDailyUtilization(rows []DailyUtilization) {
	slices.SortFunc(rows, func(a, b DailyUtilization) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.RobotKey, b.RobotKey)
	})
}
