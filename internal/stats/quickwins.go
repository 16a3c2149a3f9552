package stats

import (
	"cmp"
	"math"
	"slices"
	"sort"
	"time"

	"rpa-insights/internal/jobs"
)

// TimeWindow is a broad time-of-day band checked for underutilization.
type TimeWindow struct {
	Name      string `json:"name"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

// Hours returns the width of the window in hours.
func (w TimeWindow) Hours() int {
	return w.EndHour - w.StartHour
}

// Span returns the window's half-open span on the date of d.
func (w TimeWindow) Span(d time.Time) Interval {
	day := DateOf(d)
	return Interval{
		Start: day.Add(time.Duration(w.StartHour) * time.Hour),
		End:   day.Add(time.Duration(w.EndHour) * time.Hour),
	}
}

// DefaultWindows are the four six-hour bands of a day.
var DefaultWindows = []TimeWindow{
	{Name: "Night (00-06h)", StartHour: 0, EndHour: 6},
	{Name: "Morning (06-12h)", StartHour: 6, EndHour: 12},
	{Name: "Afternoon (12-18h)", StartHour: 12, EndHour: 18},
	{Name: "Evening (18-24h)", StartHour: 18, EndHour: 24},
}

// RecurringIdleSlot is an hour of the day in which a robot is idle on most days.
type RecurringIdleSlot struct {
	RobotKey           string            `json:"robot"`
	Hour               int               `json:"hour"`
	TimeSlot           string            `json:"time_slot"`
	DaysIdle           int               `json:"days_idle"`
	TotalDays          int               `json:"total_days"`
	Frequency          float64           `json:"frequency"`
	AvgIdleMinutes     float64           `json:"avg_idle_minutes"`
	PotentialHoursWeek float64           `json:"potential_hours_week"`
	ImpactPerMonth     float64           `json:"impact_per_month"`
	Priority           string            `json:"priority"`
	SuggestedProcesses []ProcessDuration `json:"suggested_processes"`
}

// UnderutilizedWindow is a broad time window whose fleet utilization is below target.
type UnderutilizedWindow struct {
	Window             string            `json:"window"`
	StartHour          int               `json:"start_hour"`
	EndHour            int               `json:"end_hour"`
	RobotCount         int               `json:"robot_count"`
	CurrentUtilization float64           `json:"current_utilization"` // percent
	TargetUtilization  float64           `json:"target_utilization"`  // percent
	PotentialHoursWeek float64           `json:"potential_hours_week"`
	ImpactPerMonth     float64           `json:"impact_per_month"`
	Priority           string            `json:"priority"`
	SuggestedProcesses []ProcessDuration `json:"suggested_processes"`
}

// QuickWinsReport bundles both detectors and their totals.
type QuickWinsReport struct {
	LookbackDays            int                   `json:"lookback_days"`
	PeriodStart             time.Time             `json:"period_start"`
	PeriodEnd               time.Time             `json:"period_end"` // exclusive
	Robots                  []string              `json:"robots"`
	RecurringIdle           []RecurringIdleSlot   `json:"recurring_idle"`
	UnderutilizedWindows    []UnderutilizedWindow `json:"underutilized_windows"`
	TotalPotentialHoursWeek float64               `json:"total_potential_hours_week"`
	TotalImpactPerMonth     float64               `json:"total_impact_per_month"`
	Currency                string                `json:"currency"`
}

// Empty reports whether neither detector found anything.
func (r QuickWinsReport) Empty() bool {
	return len(r.RecurringIdle) == 0 && len(r.UnderutilizedWindows) == 0
}

// FindQuickWins analyzes the lookbackDays full days before now for recurring idle hour slots
// and underutilized time windows of the production robots. A non-positive lookbackDays falls
// back to settings.QuickWinsLookbackDays.
//
// The batch may cover a longer period than the lookback; jobs inside the suggestion
// lookback are used to estimate process durations.
func FindQuickWins(batch []jobs.Job, lookbackDays int, settings Settings, now time.Time) QuickWinsReport {
	if lookbackDays <= 0 {
		lookbackDays = settings.QuickWinsLookbackDays
	}

	dates := LookbackDates(now, lookbackDays)
	today := DateOf(now)
	report := QuickWinsReport{
		LookbackDays:         lookbackDays,
		PeriodStart:          today.AddDate(0, 0, -lookbackDays),
		PeriodEnd:            today,
		Robots:               []string{},
		RecurringIdle:        []RecurringIdleSlot{},
		UnderutilizedWindows: []UnderutilizedWindow{},
		Currency:             settings.Currency,
	}
	if len(dates) == 0 {
		return report
	}

	// Jobs touching the lookback, today included, feed the duration fallback.
	windowJobs := FilterOverlapping(batch, Interval{Start: report.PeriodStart, End: today.AddDate(0, 0, 1)})

	var production []jobs.Job
	for _, j := range windowJobs {
		if jobs.HasMarker(j.RobotKey(), settings.RobotMarker) {
			production = append(production, j)
		}
	}

	grouped := NormalizeJobs(production)
	robots := activeRobots(grouped, dates)
	if len(robots) == 0 {
		return report
	}
	report.Robots = robots

	durations := CalculateProcessDurations(FilterOverlapping(batch, Interval{
		Start: today.AddDate(0, 0, -settings.SuggestionLookbackDays),
		End:   today.AddDate(0, 0, 1),
	}))
	if len(durations) == 0 {
		durations = CalculateProcessDurations(windowJobs)
	}

	report.RecurringIdle = findRecurringIdle(grouped, robots, dates, settings)
	for i := range report.RecurringIdle {
		r := &report.RecurringIdle[i]
		r.SuggestedProcesses = SuggestProcesses(durations, r.AvgIdleMinutes, settings.MinSuggestionMinutes, settings.MaxSuggestions)
	}

	report.UnderutilizedWindows = findUnderutilizedWindows(grouped, robots, dates, settings)
	for i := range report.UnderutilizedWindows {
		u := &report.UnderutilizedWindows[i]
		u.SuggestedProcesses = SuggestProcesses(durations, settings.WindowSuggestionCeilingMinutes, settings.MinSuggestionMinutes, settings.MaxSuggestions)
	}

	totalHours := 0.0
	for _, r := range report.RecurringIdle {
		totalHours += r.PotentialHoursWeek
	}
	for _, u := range report.UnderutilizedWindows {
		totalHours += u.PotentialHoursWeek
	}
	report.TotalPotentialHoursWeek = totalHours
	report.TotalImpactPerMonth = settings.MonthlyValue(totalHours)

	sortByImpact(report.RecurringIdle, func(r RecurringIdleSlot) float64 { return r.ImpactPerMonth })
	sortByImpact(report.UnderutilizedWindows, func(u UnderutilizedWindow) float64 { return u.ImpactPerMonth })

	return report
}

// FilterOverlapping keeps the usable jobs whose span intersects bounds.
func FilterOverlapping(batch []jobs.Job, bounds Interval) []jobs.Job {
	var out []jobs.Job
	for _, j := range batch {
		start, end, ok := j.Span()
		if !ok {
			continue
		}
		if _, hit := (Interval{Start: start, End: end}).Clip(bounds); hit {
			out = append(out, j)
		}
	}
	return out
}

// activeRobots lists, sorted, the robots with busy time on at least one lookback date.
func activeRobots(grouped map[RobotDay][]Interval, dates []time.Time) []string {
	inWindow := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		inWindow[d] = true
	}

	seen := make(map[string]bool)
	for rd, merged := range grouped {
		if inWindow[rd.Date] && len(merged) > 0 {
			seen[rd.RobotKey] = true
		}
	}

	robots := make([]string, 0, len(seen))
	for r := range seen {
		robots = append(robots, r)
	}
	sort.Strings(robots)
	return robots
}

func findRecurringIdle(grouped map[RobotDay][]Interval, robots []string, dates []time.Time, settings Settings) []RecurringIdleSlot {
	totalDays := len(dates)
	result := []RecurringIdleSlot{}

	for _, robot := range robots {
		for hour := 0; hour < 24; hour++ {
			daysIdle := 0
			totalIdle := 0.0
			for _, d := range dates {
				busy := BusyDuration(grouped[RobotDay{RobotKey: robot, Date: d}], HourSpan(d, hour)).Minutes()
				idle := math.Max(0, 60.0-busy)
				if idle >= settings.IdleMinutesThreshold {
					daysIdle++
				}
				totalIdle += idle
			}

			avgIdle := totalIdle / float64(totalDays)
			if daysIdle < settings.MinIdleDays || avgIdle < settings.IdleMinutesThreshold {
				continue
			}

			potential := avgIdle * 7 / 60.0
			impact := settings.MonthlyValue(potential)
			result = append(result, RecurringIdleSlot{
				RobotKey:           robot,
				Hour:               hour,
				TimeSlot:           HourSlotLabel(hour),
				DaysIdle:           daysIdle,
				TotalDays:          totalDays,
				Frequency:          float64(daysIdle) / float64(totalDays),
				AvgIdleMinutes:     avgIdle,
				PotentialHoursWeek: potential,
				ImpactPerMonth:     impact,
				Priority:           settings.ClassifyPriority(impact),
				SuggestedProcesses: []ProcessDuration{},
			})
		}
	}
	return result
}

func findUnderutilizedWindows(grouped map[RobotDay][]Interval, robots []string, dates []time.Time, settings Settings) []UnderutilizedWindow {
	robotCount := len(robots)
	result := []UnderutilizedWindow{}

	for _, w := range DefaultWindows {
		windowHours := float64(w.Hours())
		available := float64(robotCount) * windowHours * float64(len(dates))
		if available <= 0 {
			continue
		}

		var busy time.Duration
		for _, robot := range robots {
			for _, d := range dates {
				busy += BusyDuration(grouped[RobotDay{RobotKey: robot, Date: d}], w.Span(d))
			}
		}

		utilization := busy.Hours() / available
		if utilization >= settings.WindowTargetUtilization {
			continue
		}

		potential := (settings.WindowTargetUtilization - utilization) * windowHours * float64(robotCount) * 7
		impact := settings.MonthlyValue(potential)
		result = append(result, UnderutilizedWindow{
			Window:             w.Name,
			StartHour:          w.StartHour,
			EndHour:            w.EndHour,
			RobotCount:         robotCount,
			CurrentUtilization: utilization * 100,
			TargetUtilization:  settings.WindowTargetUtilization * 100,
			PotentialHoursWeek: potential,
			ImpactPerMonth:     impact,
			Priority:           settings.ClassifyPriority(impact),
			SuggestedProcesses: []ProcessDuration{},
		})
	}
	return result
}

// sortByImpact orders findings by monthly impact, highest first. The sort is stable so
// equal impacts keep robot/hour order.
func sortByImpact[T any](items []T, impact func(T) float64) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(impact(b), impact(a))
	})
}
