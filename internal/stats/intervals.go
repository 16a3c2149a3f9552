package stats

import (
	"slices"
	"time"

	"rpa-insights/internal/jobs"
)

// Interval is a half-open [Start, End) span of naive time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the interval, or zero when it is empty.
func (iv Interval) Duration() time.Duration {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Clip returns the intersection of iv and bounds. ok is false when the intersection is empty.
func (iv Interval) Clip(bounds Interval) (Interval, bool) {
	start := iv.Start
	if bounds.Start.After(start) {
		start = bounds.Start
	}
	end := iv.End
	if bounds.End.Before(end) {
		end = bounds.End
	}
	if !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// RobotDay is the grouping key for normalized intervals and daily utilization.
type RobotDay struct {
	RobotKey string
	Date     time.Time
}

// ClipToDay splits iv into one clipped piece per calendar date it overlaps.
// Pieces of zero length are discarded, so a span ending exactly at midnight
// contributes nothing to the following day.
func ClipToDay(iv Interval) map[time.Time]Interval {
	pieces := make(map[time.Time]Interval)
	if iv.Duration() == 0 {
		return pieces
	}
	for _, d := range DatesBetween(iv.Start, iv.End) {
		if clipped, ok := iv.Clip(DaySpan(d)); ok {
			pieces[d] = clipped
		}
	}
	return pieces
}

// MergeIntervals sorts the intervals by start and folds overlapping or touching ones together.
// The result is sorted and non-overlapping; merging it again returns it unchanged.
func MergeIntervals(ranges []Interval) []Interval {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]Interval, 0, len(ranges))
	for _, r := range ranges {
		if r.Duration() > 0 {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	slices.SortFunc(sorted, func(a, b Interval) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	out := []Interval{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if !r.Start.After(last.End) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// NormalizeJobs clips every usable job to the calendar days it overlaps, groups the pieces
// by (robot key, date) and merges each group. Unusable jobs are skipped.
func NormalizeJobs(batch []jobs.Job) map[RobotDay][]Interval {
	grouped := make(map[RobotDay][]Interval)
	for _, j := range batch {
		start, end, ok := j.Span()
		if !ok {
			continue
		}
		key := j.RobotKey()
		for d, piece := range ClipToDay(Interval{Start: start, End: end}) {
			rd := RobotDay{RobotKey: key, Date: d}
			grouped[rd] = append(grouped[rd], piece)
		}
	}

	for rd, ranges := range grouped {
		grouped[rd] = MergeIntervals(ranges)
	}
	return grouped
}

// BusyDuration sums merged intervals re-clipped to bounds.
func BusyDuration(merged []Interval, bounds Interval) time.Duration {
	var total time.Duration
	for _, iv := range merged {
		if clipped, ok := iv.Clip(bounds); ok {
			total += clipped.Duration()
		}
	}
	return total
}
