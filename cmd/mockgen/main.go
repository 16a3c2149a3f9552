package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"rpa-insights/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "steady", "Scenario to generate: steady, nightgap, overlap")
	distribution := flag.String("distribution", "uniform", "Distribution of job durations: uniform, weibull")
	outDir := flag.String("out", "./cache", "Cache directory of the file storage backend")
	robots := flag.Int("robots", 2, "Number of production robots")
	days := flag.Int("days", 28, "Number of full days before today to generate")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Robots:       *robots,
		Days:         *days,
		Seed:         *seed,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Robots: %d, Days: %d) to %s...\n",
		cfg.Scenario, cfg.Distribution, cfg.Robots, cfg.Days, *outDir)

	n, err := engine.Save(*outDir, engine.Generate(cfg))
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d jobs written.\n", n)
}
