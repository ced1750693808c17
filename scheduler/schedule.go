package scheduler

import (
	"time"
)

// DigestHourUTC is the UTC hour both digest schedules fire at.
const DigestHourUTC = 10

// Clock abstracts time for schedule computation so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Schedule computes the next fire time strictly after a given instant,
// and the date window a firing at that instant covers.
type Schedule interface {
	NextFire(after time.Time) time.Time
	Window(fire time.Time) (from, to time.Time)
}

// WeeklySchedule fires every Monday at 10:00 UTC and covers the
// preceding seven days.
type WeeklySchedule struct{}

func (WeeklySchedule) NextFire(after time.Time) time.Time {
	after = after.UTC()
	fire := time.Date(after.Year(), after.Month(), after.Day(), DigestHourUTC, 0, 0, 0, time.UTC)
	daysUntilMonday := (int(time.Monday) - int(fire.Weekday()) + 7) % 7
	fire = fire.AddDate(0, 0, daysUntilMonday)
	if !fire.After(after) {
		fire = fire.AddDate(0, 0, 7)
	}
	return fire
}

func (WeeklySchedule) Window(fire time.Time) (time.Time, time.Time) {
	return fire.AddDate(0, 0, -7), fire
}

// MonthlySchedule fires on the first day of each month at 10:00 UTC and
// covers the preceding month. The upstream design also woke on the 15th
// and then dropped the run; computing the next first-of-month directly
// removes that inert wake.
type MonthlySchedule struct{}

func (MonthlySchedule) NextFire(after time.Time) time.Time {
	after = after.UTC()
	fire := time.Date(after.Year(), after.Month(), 1, DigestHourUTC, 0, 0, 0, time.UTC)
	if !fire.After(after) {
		fire = fire.AddDate(0, 1, 0)
	}
	return fire
}

func (MonthlySchedule) Window(fire time.Time) (time.Time, time.Time) {
	return fire.AddDate(0, -1, 0), fire
}

// IntervalSchedule fires on a fixed interval, not aligned to the clock.
// Used by the 12 hour index sync job.
type IntervalSchedule struct {
	Every time.Duration
}

func (s IntervalSchedule) NextFire(after time.Time) time.Time {
	return after.Add(s.Every)
}

func (s IntervalSchedule) Window(fire time.Time) (time.Time, time.Time) {
	return fire.Add(-s.Every), fire
}
