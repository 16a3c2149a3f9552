package stats

import (
	"cmp"
	"slices"
	"strings"

	"rpa-insights/internal/jobs"
)

// ProcessDuration is the historical average runtime of a process.
type ProcessDuration struct {
	ProcessName        string  `json:"process"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	Runs               int     `json:"runs"`
}

// CalculateProcessDurations averages the runtime of every named process over its usable jobs.
// The result is sorted by duration ascending, ties broken by name.
func CalculateProcessDurations(batch []jobs.Job) []ProcessDuration {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, j := range batch {
		name := strings.TrimSpace(j.ProcessName)
		if name == "" {
			continue
		}
		d := j.Duration()
		if d <= 0 {
			continue
		}
		sums[name] += d.Minutes()
		counts[name]++
	}

	result := make([]ProcessDuration, 0, len(sums))
	for name, total := range sums {
		result = append(result, ProcessDuration{
			ProcessName:        name,
			AvgDurationMinutes: total / float64(counts[name]),
			Runs:               counts[name],
		})
	}

	slices.SortFunc(result, func(a, b ProcessDuration) int {
		if c := cmp.Compare(a.AvgDurationMinutes, b.AvgDurationMinutes); c != 0 {
			return c
		}
		return strings.Compare(a.ProcessName, b.ProcessName)
	})
	return result
}

// SuggestProcesses picks up to limit processes whose average duration fits into slotMinutes.
// When nothing fits, the shortest processes overall are returned instead of an empty list.
func SuggestProcesses(durations []ProcessDuration, slotMinutes, minMinutes float64, limit int) []ProcessDuration {
	if limit <= 0 || len(durations) == 0 {
		return []ProcessDuration{}
	}

	fitting := make([]ProcessDuration, 0, limit)
	for _, pd := range durations {
		if pd.AvgDurationMinutes >= minMinutes && pd.AvgDurationMinutes <= slotMinutes {
			fitting = append(fitting, pd)
			if len(fitting) == limit {
				break
			}
		}
	}
	if len(fitting) > 0 {
		return fitting
	}

	n := min(limit, len(durations))
	shortest := make([]ProcessDuration, n)
	copy(shortest, durations[:n])
	return shortest
}
