package jobs

import (
	"strings"
	"time"
)

// UnknownRobot is the robot key used when a job carries neither a machine nor a robot name.
const UnknownRobot = "Unknown"

// Job represents a single execution record fetched from the orchestrator.
// It is the primary unit of the job log.
type Job struct {
	// Key is the orchestrator job key and the deduplication identity.
	Key string `json:"key"`
	// RobotName is the generic robot (user) the job ran under.
	RobotName string `json:"robotName,omitempty"`
	// MachineName is the host machine; preferred over RobotName for identity.
	MachineName string `json:"machineName,omitempty"`
	// ProcessName is the released process (e.g. "Invoice_Intake").
	ProcessName string `json:"processName,omitempty"`
	// Start is when the job started executing.
	Start time.Time `json:"start"`
	// End is when the job finished. Nil while running or when unknown.
	End *time.Time `json:"end,omitempty"`
	// State is the final orchestrator state (Successful, Faulted, Stopped).
	State string `json:"state,omitempty"`
}

// RobotKey returns the canonical robot identity for grouping.
// The trimmed machine name wins; the robot name is the fallback.
func (j Job) RobotKey() string {
	if mn := strings.TrimSpace(j.MachineName); mn != "" {
		return mn
	}
	if j.RobotName != "" {
		return j.RobotName
	}
	return UnknownRobot
}

// Span returns the naive [start, end) interval of the job.
// ok is false when the job has no end or a non-positive duration.
func (j Job) Span() (start, end time.Time, ok bool) {
	if j.Start.IsZero() || j.End == nil || j.End.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	start = Naive(j.Start)
	end = Naive(*j.End)
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// Usable reports whether the job can take part in interval arithmetic.
func (j Job) Usable() bool {
	_, _, ok := j.Span()
	return ok
}

// Duration returns the job's runtime, or zero when the job is not usable.
func (j Job) Duration() time.Duration {
	start, end, ok := j.Span()
	if !ok {
		return 0
	}
	return end.Sub(start)
}

// Naive drops the zone offset of t and re-anchors its wall clock in UTC.
// The clock reading is never shifted: 08:00+02:00 becomes 08:00 UTC.
func Naive(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// HasMarker reports whether the robot key belongs to the production fleet
// identified by the given marker (e.g. "RPA-").
func HasMarker(robotKey, marker string) bool {
	if marker == "" {
		return true
	}
	return strings.Contains(robotKey, marker)
}
