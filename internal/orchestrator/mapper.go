package orchestrator

import (
	"strings"

	"rpa-insights/internal/jobs"
)

// MapJob transforms an Orchestrator DTO into a domain job.
// Jobs without a key or a parseable start time are rejected.
func MapJob(item JobDTO) (jobs.Job, bool) {
	key := strings.TrimSpace(item.Key)
	if key == "" {
		return jobs.Job{}, false
	}
	start, err := ParseTime(item.StartTime)
	if err != nil {
		return jobs.Job{}, false
	}

	var robot RobotDTO
	if item.Robot != nil {
		robot = *item.Robot
	}

	machine := item.HostMachineName
	if machine == "" {
		machine = robot.MachineName
	}
	robotName := robot.Name
	if robotName == "" {
		robotName = item.RuntimeType
	}
	if robotName == "" {
		robotName = jobs.UnknownRobot
	}

	job := jobs.Job{
		Key:         key,
		RobotName:   robotName,
		MachineName: strings.TrimSpace(machine),
		ProcessName: item.ReleaseName,
		Start:       jobs.Naive(start),
		State:       item.State,
	}
	if item.EndTime != "" {
		if end, err := ParseTime(item.EndTime); err == nil {
			end = jobs.Naive(end)
			job.End = &end
		}
	}
	return job, true
}
