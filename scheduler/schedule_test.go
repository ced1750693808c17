package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestWeeklyNextFire(t *testing.T) {
	s := WeeklySchedule{}

	// 2021-11-03 is a Wednesday; next Monday is 2021-11-08.
	assert.Equal(t, utc(2021, 11, 8, 10), s.NextFire(utc(2021, 11, 3, 12)))

	// Monday before 10:00 fires the same day.
	assert.Equal(t, utc(2021, 11, 8, 10), s.NextFire(utc(2021, 11, 8, 9)))

	// Monday at exactly 10:00 schedules the following week.
	assert.Equal(t, utc(2021, 11, 15, 10), s.NextFire(utc(2021, 11, 8, 10)))
}

func TestWeeklyWindowIsSevenDays(t *testing.T) {
	s := WeeklySchedule{}
	fire := utc(2021, 11, 8, 10)

	from, to := s.Window(fire)
	assert.Equal(t, utc(2021, 11, 1, 10), from)
	assert.Equal(t, fire, to)
}

func TestMonthlyNextFire(t *testing.T) {
	s := MonthlySchedule{}

	// Mid-month schedules the first of the next month; there is no
	// mid-month wake.
	assert.Equal(t, utc(2021, 12, 1, 10), s.NextFire(utc(2021, 11, 15, 10)))

	// First of the month before 10:00 fires the same day.
	assert.Equal(t, utc(2021, 11, 1, 10), s.NextFire(utc(2021, 11, 1, 9)))

	// Year rollover.
	assert.Equal(t, utc(2022, 1, 1, 10), s.NextFire(utc(2021, 12, 20, 0)))
}

func TestMonthlyWindowIsOneMonth(t *testing.T) {
	s := MonthlySchedule{}
	fire := utc(2021, 12, 1, 10)

	from, to := s.Window(fire)
	assert.Equal(t, utc(2021, 11, 1, 10), from)
	assert.Equal(t, fire, to)
}

func TestIntervalSchedule(t *testing.T) {
	s := IntervalSchedule{Every: 12 * time.Hour}
	now := utc(2021, 11, 3, 0)

	assert.Equal(t, now.Add(12*time.Hour), s.NextFire(now))

	from, _ := s.Window(now.Add(12 * time.Hour))
	assert.Equal(t, now, from)
}

func TestJobFireAdvancesSchedule(t *testing.T) {
	clock := &fixedClock{now: utc(2021, 11, 3, 12)}
	var gotFrom, gotTo time.Time
	job := NewJob("test", WeeklySchedule{}, clock, func(ctx context.Context, from, to time.Time) error {
		gotFrom, gotTo = from, to
		return nil
	})

	assert.False(t, job.HasRunBefore())
	assert.Equal(t, utc(2021, 11, 8, 10).Sub(clock.now), job.DurationTillNextRun())

	require.NoError(t, job.Fire(context.Background()))

	assert.True(t, job.HasRunBefore())
	assert.Equal(t, int64(1), job.RunCount())
	assert.Equal(t, utc(2021, 11, 1, 10), gotFrom)
	assert.Equal(t, utc(2021, 11, 8, 10), gotTo)

	// Next run is computed from the scheduled occurrence, not from the
	// clock, so a slow tick does not drift the schedule.
	clock.now = utc(2021, 11, 8, 11)
	assert.Equal(t, utc(2021, 11, 15, 10).Sub(clock.now), job.DurationTillNextRun())
}
