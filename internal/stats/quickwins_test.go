package stats

import (
	"testing"
	"time"

	"rpa-insights/internal/jobs"
)

// now is one week after day0; the 7-day lookback is day0 .. day0+6.
var now = at(day0.AddDate(0, 0, 7), 12, 0)

func TestFindQuickWins_RecurringIdleScenario(t *testing.T) {
	settings := DefaultSettings()

	var batch []jobs.Job
	for i := 0; i < 7; i++ {
		d := day0.AddDate(0, 0, i)
		batch = append(batch,
			newJob("RPA-X", "Night_Batch", at(d, 0, 0), at(d, 3, 0)),
			newJob("RPA-X", "Day_Batch", at(d, 4, 0), at(d, 24, 0)),
		)
	}
	// Short process seen on another robot inside the suggestion lookback only.
	old := day0.AddDate(0, 0, -30)
	batch = append(batch, newJob("svc-robot", "Quick_Check", at(old, 10, 0), at(old, 10, 10)))

	report := FindQuickWins(batch, 7, settings, now)

	if len(report.Robots) != 1 || report.Robots[0] != "RPA-X" {
		t.Fatalf("expected only RPA-X to be analyzed, got %v", report.Robots)
	}
	if len(report.RecurringIdle) != 1 {
		t.Fatalf("expected exactly 1 recurring idle slot, got %d: %+v", len(report.RecurringIdle), report.RecurringIdle)
	}

	slot := report.RecurringIdle[0]
	if slot.Hour != 3 || slot.TimeSlot != "03:00-04:00" {
		t.Errorf("unexpected slot %d %s", slot.Hour, slot.TimeSlot)
	}
	if slot.AvgIdleMinutes != 60 {
		t.Errorf("avg idle = %v, want 60", slot.AvgIdleMinutes)
	}
	if slot.DaysIdle != 7 || slot.TotalDays != 7 || slot.Frequency != 1 {
		t.Errorf("days idle = %d/%d (%v), want 7/7", slot.DaysIdle, slot.TotalDays, slot.Frequency)
	}
	if !approx(slot.PotentialHoursWeek, 7.0) {
		t.Errorf("potential = %v, want 7.0", slot.PotentialHoursWeek)
	}
	if !approx(slot.ImpactPerMonth, 7.0*4.33*50) {
		t.Errorf("impact = %v, want %v", slot.ImpactPerMonth, 7.0*4.33*50)
	}
	if slot.Priority != PriorityHigh {
		t.Errorf("priority = %s, want HIGH", slot.Priority)
	}

	if len(slot.SuggestedProcesses) != 1 || slot.SuggestedProcesses[0].ProcessName != "Quick_Check" {
		t.Errorf("expected Quick_Check as the only fitting suggestion, got %+v", slot.SuggestedProcesses)
	}

	// Night window is 5/6 busy, the rest fully busy: nothing below 40%.
	if len(report.UnderutilizedWindows) != 0 {
		t.Errorf("expected no underutilized windows, got %+v", report.UnderutilizedWindows)
	}
	if !approx(report.TotalPotentialHoursWeek, 7.0) {
		t.Errorf("total hours = %v, want 7.0", report.TotalPotentialHoursWeek)
	}
}

func TestFindQuickWins_UnderutilizedWindows(t *testing.T) {
	settings := DefaultSettings()

	var batch []jobs.Job
	for i := 0; i < 7; i++ {
		d := day0.AddDate(0, 0, i)
		batch = append(batch,
			newJob("RPA-A", "Invoice", at(d, 8, 0), at(d, 9, 0)),
			newJob("RPA-B", "Invoice", at(d, 8, 0), at(d, 9, 0)),
		)
	}

	report := FindQuickWins(batch, 7, settings, now)

	if len(report.UnderutilizedWindows) != 4 {
		t.Fatalf("expected all 4 windows to be underutilized, got %d", len(report.UnderutilizedWindows))
	}

	byName := map[string]UnderutilizedWindow{}
	for _, u := range report.UnderutilizedWindows {
		byName[u.Window] = u
		if u.RobotCount != 2 {
			t.Errorf("%s: robot count = %d, want 2", u.Window, u.RobotCount)
		}
		if !approx(u.TargetUtilization, 40) {
			t.Errorf("%s: target = %v, want 40", u.Window, u.TargetUtilization)
		}
	}

	night := byName["Night (00-06h)"]
	if night.CurrentUtilization != 0 || !approx(night.PotentialHoursWeek, 0.4*6*2*7) {
		t.Errorf("night: util %v potential %v", night.CurrentUtilization, night.PotentialHoursWeek)
	}

	morning := byName["Morning (06-12h)"]
	if !approx(morning.CurrentUtilization, 100.0/6) {
		t.Errorf("morning utilization = %v, want %v", morning.CurrentUtilization, 100.0/6)
	}
	if !approx(morning.PotentialHoursWeek, (0.4-1.0/6)*6*2*7) {
		t.Errorf("morning potential = %v", morning.PotentialHoursWeek)
	}

	// Sorted by impact, highest first.
	for i := 1; i < len(report.UnderutilizedWindows); i++ {
		if report.UnderutilizedWindows[i].ImpactPerMonth > report.UnderutilizedWindows[i-1].ImpactPerMonth {
			t.Errorf("windows not sorted by impact at %d", i)
		}
	}
	for i := 1; i < len(report.RecurringIdle); i++ {
		if report.RecurringIdle[i].ImpactPerMonth > report.RecurringIdle[i-1].ImpactPerMonth {
			t.Errorf("recurring idle not sorted by impact at %d", i)
		}
	}

	// Every hour except 08:00 is idle for both robots.
	if len(report.RecurringIdle) != 46 {
		t.Errorf("expected 46 recurring idle slots, got %d", len(report.RecurringIdle))
	}

	// Invoice runs 60 minutes: fits the 90-minute window ceiling.
	if len(morning.SuggestedProcesses) != 1 || morning.SuggestedProcesses[0].ProcessName != "Invoice" {
		t.Errorf("unexpected window suggestions %+v", morning.SuggestedProcesses)
	}

	sum := 0.0
	for _, r := range report.RecurringIdle {
		sum += r.PotentialHoursWeek
	}
	for _, u := range report.UnderutilizedWindows {
		sum += u.PotentialHoursWeek
	}
	if !approx(report.TotalPotentialHoursWeek, sum) {
		t.Errorf("total hours = %v, want %v", report.TotalPotentialHoursWeek, sum)
	}
	if !approx(report.TotalImpactPerMonth, settings.MonthlyValue(sum)) {
		t.Errorf("total impact = %v, want %v", report.TotalImpactPerMonth, settings.MonthlyValue(sum))
	}
}

func TestFindQuickWins_RobotCountScalesWindowPotential(t *testing.T) {
	settings := DefaultSettings()

	var batch []jobs.Job
	for _, robot := range []string{"RPA-A", "RPA-B", "RPA-C"} {
		d := day0.AddDate(0, 0, 2)
		batch = append(batch, newJob(robot, "Invoice", at(d, 8, 0), at(d, 9, 0)))
	}

	report := FindQuickWins(batch, 7, settings, now)
	for _, u := range report.UnderutilizedWindows {
		if u.Window != "Night (00-06h)" {
			continue
		}
		if !approx(u.PotentialHoursWeek, 0.4*6*3*7) {
			t.Errorf("night potential = %v, want %v", u.PotentialHoursWeek, 0.4*6*3*7)
		}
		return
	}
	t.Fatal("night window finding missing")
}

func TestFindQuickWins_NoProductionRobots(t *testing.T) {
	d := day0.AddDate(0, 0, 1)
	batch := []jobs.Job{
		{RobotName: "svc-robot", ProcessName: "Invoice", Start: at(d, 8, 0), End: ptr(at(d, 9, 0))},
	}

	report := FindQuickWins(batch, 7, DefaultSettings(), now)
	if !report.Empty() {
		t.Errorf("expected no findings without production robots, got %+v", report)
	}
	if report.TotalImpactPerMonth != 0 || report.TotalPotentialHoursWeek != 0 {
		t.Error("expected zero totals")
	}
}

func TestFindQuickWins_IdleThreshold(t *testing.T) {
	settings := DefaultSettings()

	// Hour 10 is busy 40 minutes on 3 days (20 idle) and free on 4 days:
	// idle on 4 of 7 days but average (3*20 + 4*60)/7 = 42.9 >= 30 -> qualifies.
	// Hour 11 is busy 40 minutes on 4 days: only 3 idle days -> does not qualify.
	var batch []jobs.Job
	for i := 0; i < 7; i++ {
		d := day0.AddDate(0, 0, i)
		batch = append(batch, newJob("RPA-X", "Filler", at(d, 0, 0), at(d, 10, 0)))
		batch = append(batch, newJob("RPA-X", "Filler", at(d, 12, 0), at(d, 24, 0)))
		if i < 3 {
			batch = append(batch, newJob("RPA-X", "Part", at(d, 10, 0), at(d, 10, 40)))
		}
		if i < 4 {
			batch = append(batch, newJob("RPA-X", "Part", at(d, 11, 0), at(d, 11, 40)))
		}
	}

	report := FindQuickWins(batch, 7, settings, now)

	hours := map[int]RecurringIdleSlot{}
	for _, r := range report.RecurringIdle {
		hours[r.Hour] = r
	}
	if len(hours) != 1 {
		t.Fatalf("expected only hour 10 to qualify, got %v", hours)
	}
	slot, ok := hours[10]
	if !ok {
		t.Fatal("hour 10 missing")
	}
	if slot.DaysIdle != 4 {
		t.Errorf("days idle = %d, want 4", slot.DaysIdle)
	}
	if !approx(slot.AvgIdleMinutes, 300.0/7) {
		t.Errorf("avg idle = %v, want %v", slot.AvgIdleMinutes, 300.0/7)
	}
}

func TestFindQuickWins_OverlappingJobsNotDoubleCounted(t *testing.T) {
	// Two overlapping 40-minute jobs inside hour 5 leave 10 idle minutes, not zero.
	var batch []jobs.Job
	for i := 0; i < 7; i++ {
		d := day0.AddDate(0, 0, i)
		batch = append(batch,
			newJob("RPA-X", "A", at(d, 5, 0), at(d, 5, 40)),
			newJob("RPA-X", "B", at(d, 5, 10), at(d, 5, 50)),
		)
	}

	settings := DefaultSettings()
	settings.IdleMinutesThreshold = 10

	report := FindQuickWins(batch, 7, settings, now)
	for _, r := range report.RecurringIdle {
		if r.Hour == 5 {
			if !approx(r.AvgIdleMinutes, 10) {
				t.Errorf("avg idle = %v, want 10", r.AvgIdleMinutes)
			}
			return
		}
	}
	t.Fatal("hour 5 should qualify with 10 idle minutes per day")
}

func TestFindQuickWins_JobsOutsideLookbackIgnored(t *testing.T) {
	today := DateOf(now)
	batch := []jobs.Job{
		newJob("RPA-X", "Old", at(day0.AddDate(0, 0, -3), 8, 0), at(day0.AddDate(0, 0, -3), 9, 0)),
		newJob("RPA-X", "Today", at(today, 8, 0), at(today, 9, 0)),
	}

	report := FindQuickWins(batch, 7, DefaultSettings(), now)
	if !report.Empty() || len(report.Robots) != 0 {
		t.Errorf("expected no active robots in the lookback, got %v", report.Robots)
	}
}

func TestClassifyPriority_Monotonic(t *testing.T) {
	s := DefaultSettings()
	prev := PriorityRank(s.ClassifyPriority(0))
	for impact := 0.0; impact <= 2000; impact += 12.5 {
		rank := PriorityRank(s.ClassifyPriority(impact))
		if rank < prev {
			t.Fatalf("priority dropped at impact %v", impact)
		}
		prev = rank
	}

	tests := []struct {
		impact   float64
		expected string
	}{
		{0, PriorityLow},
		{499.99, PriorityLow},
		{500, PriorityMedium},
		{999.99, PriorityMedium},
		{1000, PriorityHigh},
	}
	for _, tt := range tests {
		if got := s.ClassifyPriority(tt.impact); got != tt.expected {
			t.Errorf("ClassifyPriority(%v) = %s, want %s", tt.impact, got, tt.expected)
		}
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
