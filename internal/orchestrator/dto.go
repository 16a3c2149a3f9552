package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// JobsPage is one page of the OData Jobs endpoint.
type JobsPage struct {
	Value []JobDTO `json:"value"`
}

// JobDTO represents a single job in the Orchestrator response.
type JobDTO struct {
	Key             string    `json:"Key"`
	HostMachineName string    `json:"HostMachineName"`
	RuntimeType     string    `json:"RuntimeType"`
	ReleaseName     string    `json:"ReleaseName"`
	StartTime       string    `json:"StartTime"`
	EndTime         string    `json:"EndTime"`
	State           string    `json:"State"`
	Robot           *RobotDTO `json:"Robot,omitempty"`
}

// RobotDTO is the expanded Robot entity of a job.
type RobotDTO struct {
	Name        string `json:"Name"`
	MachineName string `json:"MachineName"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTime parses Orchestrator timestamps with or without a zone suffix.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
