package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job tracks the execution state of one recurring schedule. It wraps a
// Schedule with the last/next fire bookkeeping and a tick callback.
// This struct is thread-safe.
type Job struct {
	m sync.RWMutex

	// The last time this job fired.
	lastRun time.Time

	// The next time this job should fire.
	nextRun time.Time

	schedule Schedule
	clock    Clock
	name     string

	// tick runs on every firing. Errors are the caller's to log; the job
	// itself never dies on a tick error.
	tick func(ctx context.Context, from, to time.Time) error

	// How many times this job has fired.
	runCount int64
}

// NewJob creates a Job over a schedule and a tick callback.
func NewJob(name string, schedule Schedule, clock Clock, tick func(ctx context.Context, from, to time.Time) error) *Job {
	return &Job{
		schedule: schedule,
		clock:    clock,
		name:     name,
		tick:     tick,
	}
}

func (j *Job) Name() string { return j.name }

func (j *Job) HasRunBefore() bool {
	j.m.RLock()
	defer j.m.RUnlock()
	return !j.lastRun.IsZero()
}

func (j *Job) RunCount() int64 {
	j.m.RLock()
	defer j.m.RUnlock()
	return j.runCount
}

// DurationTillNextRun computes how long to sleep before the next fire.
func (j *Job) DurationTillNextRun() time.Duration {
	now := j.clock.Now()

	j.m.RLock()
	next := j.nextRun
	j.m.RUnlock()

	if next.IsZero() {
		next = j.schedule.NextFire(now)
		j.m.Lock()
		j.nextRun = next
		j.m.Unlock()
	}
	return next.Sub(now)
}

// Fire runs the tick for the current scheduled occurrence and advances
// the schedule. The next fire time is computed from the scheduled
// occurrence, not from when the tick finished, so a slow run does not
// drift the schedule.
func (j *Job) Fire(ctx context.Context) error {
	j.m.Lock()
	fire := j.nextRun
	if fire.IsZero() {
		fire = j.schedule.NextFire(j.clock.Now())
	}
	j.lastRun = fire
	j.nextRun = j.schedule.NextFire(fire)
	j.runCount++
	j.m.Unlock()

	from, to := j.schedule.Window(fire)
	return j.tick(ctx, from, to)
}
