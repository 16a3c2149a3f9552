package visuals

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"rpa-insights/internal/stats"
)

// maxBars caps the number of bars in a text chart.
const maxBars = 15

func quote(s string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(s, "\"", "'"))
}

// GenerateWeeklyUtilizationChart creates a Mermaid xychart-beta with the average utilization
// of each ISO week and the target utilization as a reference line.
func GenerateWeeklyUtilizationChart(report stats.WeeklyTrendsReport, targetPercent float64) string {
	if len(report.Weeks) == 0 {
		return ""
	}

	var labels, values, targets []string
	for _, w := range report.Weeks {
		labels = append(labels, quote(w.Label))
		values = append(values, fmt.Sprintf("%.1f", w.AvgUtilization))
		targets = append(targets, fmt.Sprintf("%.1f", targetPercent))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Weekly Utilization (%)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Utilization (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(targets, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateIdleHoursChart creates a Mermaid bar chart of summed idle hours per week.
func GenerateIdleHoursChart(report stats.WeeklyTrendsReport) string {
	if len(report.Weeks) == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0.0
	for _, w := range report.Weeks {
		labels = append(labels, quote(w.Label))
		values = append(values, fmt.Sprintf("%.1f", w.TotalIdleHours))
		maxVal = math.Max(maxVal, w.TotalIdleHours)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Idle Hours per Week\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Idle Hours\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateQuickWinImpactChart creates a Mermaid bar chart of the monthly impact of the top
// findings, recurring idle slots and underutilized windows combined.
func GenerateQuickWinImpactChart(report stats.QuickWinsReport) string {
	type bar struct {
		label  string
		impact float64
	}

	var bars []bar
	for _, r := range report.RecurringIdle {
		bars = append(bars, bar{label: fmt.Sprintf("%s %s", r.RobotKey, r.TimeSlot), impact: r.ImpactPerMonth})
	}
	for _, u := range report.UnderutilizedWindows {
		bars = append(bars, bar{label: u.Window, impact: u.ImpactPerMonth})
	}
	if len(bars) == 0 {
		return ""
	}

	slices.SortStableFunc(bars, func(a, b bar) int {
		return cmp.Compare(b.impact, a.impact)
	})
	if len(bars) > maxBars {
		bars = bars[:maxBars]
	}

	var labels, values []string
	maxVal := 0.0
	for _, b := range bars {
		labels = append(labels, quote(b.label))
		values = append(values, fmt.Sprintf("%.0f", b.impact))
		maxVal = math.Max(maxVal, b.impact)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Quick-Win Impact per Month (%s)\"\n", report.Currency))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", report.Currency, int(math.Ceil(maxVal*1.2))+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
