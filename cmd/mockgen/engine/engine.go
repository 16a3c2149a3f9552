package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"rpa-insights/internal/jobs"
)

type GeneratorConfig struct {
	Scenario     string // "steady", "nightgap" or "overlap"
	Distribution string // "uniform" or "weibull"
	Robots       int
	Days         int
	Seed         int64
	Now          time.Time
}

// Processes are the synthetic automations with their typical runtime in minutes.
var Processes = []struct {
	Name    string
	Minutes float64
}{
	{"Invoice Intake", 12},
	{"Vendor Master Sync", 25},
	{"Bank Statement Import", 8},
	{"Payroll Check", 45},
	{"Order Confirmation", 4},
	{"Month End Report", 80},
}

// Generate produces jobs for Robots production robots over the Days full days before Now.
// Robots work a shift of short jobs; the scenario decides how the shift and the nights look.
func Generate(cfg GeneratorConfig) []jobs.Job {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.Robots <= 0 {
		cfg.Robots = 2
	}
	if cfg.Days <= 0 {
		cfg.Days = 28
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	today := jobs.Naive(cfg.Now)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	var result []jobs.Job
	for r := 0; r < cfg.Robots; r++ {
		machine := fmt.Sprintf("RPA-BOT-%03d", r+1)
		robot := fmt.Sprintf("bot%02d", r+1)

		for d := cfg.Days; d >= 1; d-- {
			day := today.AddDate(0, 0, -d)
			shiftStart, shiftEnd := 7, 19
			if cfg.Scenario == "nightgap" && r%2 == 1 {
				// Odd robots run a late shift and leave the mornings empty.
				shiftStart, shiftEnd = 14, 24
			}

			cursor := day.Add(time.Duration(shiftStart) * time.Hour)
			limit := day.Add(time.Duration(shiftEnd) * time.Hour)
			for cursor.Before(limit) {
				p := Processes[rng.Intn(len(Processes))]
				minutes := sampleMinutes(rng, cfg.Distribution, p.Minutes)
				end := cursor.Add(time.Duration(minutes * float64(time.Minute)))

				start := cursor
				if cfg.Scenario == "overlap" && rng.Float64() < 0.2 {
					// Retried jobs overlap the previous run.
					start = cursor.Add(-time.Duration(rng.Intn(10)+1) * time.Minute)
				}

				result = append(result, jobs.Job{
					Key:         fmt.Sprintf("%s-%s-%04d", machine, day.Format("20060102"), len(result)),
					RobotName:   robot,
					MachineName: machine,
					ProcessName: p.Name,
					Start:       start,
					End:         &end,
					State:       "Successful",
				})

				gap := time.Duration(5+rng.Intn(40)) * time.Minute
				cursor = end.Add(gap)
			}
		}
	}
	return result
}

func sampleMinutes(rng *rand.Rand, distribution string, typical float64) float64 {
	if distribution == "weibull" {
		return math.Max(1, weibullSample(rng, 1.5, typical))
	}
	return typical * (0.7 + rng.Float64()*0.6)
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the jobs as the JSONL job cache read by the file storage backend.
func Save(outDir string, batch []jobs.Job) (int, error) {
	store := jobs.NewStore()
	if err := store.Load(outDir); err != nil {
		return 0, err
	}
	n := store.Upsert(batch)
	if err := store.Save(outDir); err != nil {
		return 0, err
	}
	return n, nil
}
