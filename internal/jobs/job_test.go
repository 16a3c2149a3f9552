package jobs

import (
	"testing"
	"time"
)

func TestJob_RobotKey(t *testing.T) {
	tests := []struct {
		name     string
		job      Job
		expected string
	}{
		{"MachinePreferred", Job{RobotName: "svc-robot", MachineName: "RPA-DONALD-001"}, "RPA-DONALD-001"},
		{"MachineTrimmed", Job{RobotName: "svc-robot", MachineName: "  RPA-MICKY-002 "}, "RPA-MICKY-002"},
		{"BlankMachineFallsBack", Job{RobotName: "svc-robot", MachineName: "   "}, "svc-robot"},
		{"NothingSet", Job{}, UnknownRobot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.job.RobotKey(); got != tt.expected {
				t.Errorf("RobotKey() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestJob_Span(t *testing.T) {
	start := time.Date(2026, 2, 13, 8, 0, 0, 0, time.UTC)
	later := start.Add(45 * time.Minute)
	earlier := start.Add(-time.Minute)

	tests := []struct {
		name string
		job  Job
		ok   bool
	}{
		{"Valid", Job{Start: start, End: &later}, true},
		{"MissingEnd", Job{Start: start}, false},
		{"ZeroDuration", Job{Start: start, End: &start}, false},
		{"NegativeDuration", Job{Start: start, End: &earlier}, false},
		{"MissingStart", Job{End: &later}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := tt.job.Span(); ok != tt.ok {
				t.Errorf("Span() ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestNaive_KeepsWallClock(t *testing.T) {
	berlin := time.FixedZone("CET", 2*60*60)
	in := time.Date(2026, 2, 13, 23, 30, 0, 0, berlin)

	got := Naive(in)
	want := time.Date(2026, 2, 13, 23, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Naive() = %v, want %v", got, want)
	}
}

func TestJob_Duration_SameMinute(t *testing.T) {
	start := time.Date(2026, 2, 13, 8, 0, 5, 0, time.UTC)
	end := start.Add(20 * time.Second)
	j := Job{Start: start, End: &end}

	if got := j.Duration(); got != 20*time.Second {
		t.Errorf("Duration() = %v, want 20s", got)
	}
}
