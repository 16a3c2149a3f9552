package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"rpa-insights/internal/jobs"
)

// WeeklyTrend summarizes the daily utilization rows of one ISO week.
type WeeklyTrend struct {
	Label          string    `json:"week_number"`
	ISOYear        int       `json:"iso_year"`
	ISOWeek        int       `json:"iso_week"`
	FirstDate      time.Time `json:"first_date"`
	LastDate       time.Time `json:"last_date"`
	DateRange      string    `json:"date_range"`
	AvgUtilization float64   `json:"avg_utilization"`
	TotalIdleHours float64   `json:"total_idle_hours"`
	Records        int       `json:"records"`
}

// OverallTrend compares the earliest and the latest week.
// Comparable is false when fewer than two weeks exist; the deltas are then zero
// and must be read as "no comparison", not as "no change".
type OverallTrend struct {
	Comparable               bool    `json:"comparable"`
	UtilizationChange        float64 `json:"utilization_change"`
	IdleReductionHoursWeek   float64 `json:"idle_reduction_hours_week"`
	ImprovementValuePerMonth float64 `json:"improvement_value_per_month"`
}

// WeeklyTrendsReport is the result of CalculateWeeklyTrends.
type WeeklyTrendsReport struct {
	LookbackDays int           `json:"lookback_days"`
	PeriodStart  time.Time     `json:"period_start"`
	PeriodEnd    time.Time     `json:"period_end"` // inclusive
	Filtered     bool          `json:"production_only"`
	Weeks        []WeeklyTrend `json:"weeks"`
	OverallTrend OverallTrend  `json:"overall_trend"`
	Currency     string        `json:"currency"`
}

// CalculateWeeklyTrends groups the rows of the last lookbackDays days (today included) into
// ISO weeks. Rows of production robots are preferred; when none match, all rows are used.
// A non-positive lookbackDays falls back to settings.TrendsLookbackDays.
func CalculateWeeklyTrends(rows []DailyUtilization, lookbackDays int, settings Settings, now time.Time) WeeklyTrendsReport {
	if lookbackDays <= 0 {
		lookbackDays = settings.TrendsLookbackDays
	}

	end := DateOf(now)
	start := end.AddDate(0, 0, -(lookbackDays - 1))
	report := WeeklyTrendsReport{
		LookbackDays: lookbackDays,
		PeriodStart:  start,
		PeriodEnd:    end,
		Weeks:        []WeeklyTrend{},
		Currency:     settings.Currency,
	}

	var inRange, production []DailyUtilization
	for _, r := range rows {
		d := DateOf(r.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		inRange = append(inRange, r)
		if r.RobotKey != "" && jobs.HasMarker(r.RobotKey, settings.RobotMarker) {
			production = append(production, r)
		}
	}

	use := inRange
	if len(production) > 0 {
		use = production
		report.Filtered = true
	}

	type weekKey struct{ year, week int }
	buckets := make(map[weekKey]*WeeklyTrend)
	utilSums := make(map[weekKey]float64)

	for _, r := range use {
		d := DateOf(r.Date)
		year, week := d.ISOWeek()
		k := weekKey{year, week}
		b, ok := buckets[k]
		if !ok {
			b = &WeeklyTrend{
				Label:     ISOWeekLabel(d),
				ISOYear:   year,
				ISOWeek:   week,
				FirstDate: d,
				LastDate:  d,
			}
			buckets[k] = b
		}
		if d.Before(b.FirstDate) {
			b.FirstDate = d
		}
		if d.After(b.LastDate) {
			b.LastDate = d
		}
		b.Records++
		b.TotalIdleHours += r.IdleHours
		utilSums[k] += r.UtilizationPercent
	}

	for k, b := range buckets {
		b.AvgUtilization = utilSums[k] / float64(b.Records)
		b.DateRange = formatDateRange(b.FirstDate, b.LastDate)
		report.Weeks = append(report.Weeks, *b)
	}

	slices.SortFunc(report.Weeks, func(a, b WeeklyTrend) int {
		return strings.Compare(a.Label, b.Label)
	})

	report.OverallTrend = CalculateOverallTrend(report.Weeks, settings)
	return report
}

// CalculateOverallTrend compares the first and last week of an ascending week list.
func CalculateOverallTrend(weeks []WeeklyTrend, settings Settings) OverallTrend {
	if len(weeks) < 2 {
		return OverallTrend{}
	}
	first := weeks[0]
	last := weeks[len(weeks)-1]
	reduction := first.TotalIdleHours - last.TotalIdleHours
	return OverallTrend{
		Comparable:               true,
		UtilizationChange:        last.AvgUtilization - first.AvgUtilization,
		IdleReductionHoursWeek:   reduction,
		ImprovementValuePerMonth: settings.MonthlyValue(reduction),
	}
}

func formatDateRange(first, last time.Time) string {
	return fmt.Sprintf("%s - %s", first.Format("02.01."), last.Format("02.01."))
}
