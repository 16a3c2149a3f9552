package stats

import (
	"fmt"
	"time"

	"rpa-insights/internal/jobs"
)

// DateOf returns the naive calendar date (midnight UTC) of t.
// Any zone offset is dropped before the date is taken.
func DateOf(t time.Time) time.Time {
	n := jobs.Naive(t)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// DaySpan returns the half-open span [date 00:00, date+1 00:00) of the calendar date of d.
func DaySpan(d time.Time) Interval {
	start := DateOf(d)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// HourSpan returns the half-open span of the given hour (0-23) on the date of d.
func HourSpan(d time.Time, hour int) Interval {
	start := DateOf(d).Add(time.Duration(hour) * time.Hour)
	return Interval{Start: start, End: start.Add(time.Hour)}
}

// DatesBetween enumerates every calendar date from the date of start to the date of end, inclusive.
func DatesBetween(start, end time.Time) []time.Time {
	first := DateOf(start)
	last := DateOf(end)
	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// LookbackDates returns the n full calendar days preceding the date of now, oldest first.
// Today itself is not part of the window since it is still incomplete.
func LookbackDates(now time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	today := DateOf(now)
	dates := make([]time.Time, n)
	for i := 0; i < n; i++ {
		dates[i] = today.AddDate(0, 0, i-n)
	}
	return dates
}

// ISOWeekLabel returns a label like "2026-W07" for the ISO week of d.
func ISOWeekLabel(d time.Time) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// HourSlotLabel formats an hour slot as "03:00-04:00".
func HourSlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:00", hour, hour+1)
}
