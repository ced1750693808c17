package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"

	"github.com/curately/goodreads/digest"
	"github.com/curately/goodreads/model"
	Logger "github.com/curately/goodreads/utils/log"
)

// DigestSchedule is a module that publishes a digest job to the event
// bus on every firing of its schedule. The worker module consumes the
// jobs and fans them out per team.
type DigestSchedule struct {
	job       *Job
	publisher message.Publisher
}

// NewDigestSchedule builds the module for one frequency.
func NewDigestSchedule(frequency model.DigestFrequency, clock Clock, publisher message.Publisher) *DigestSchedule {
	var schedule Schedule = WeeklySchedule{}
	name := "weekly_digest_schedule"
	if frequency == model.DigestMonthly {
		schedule = MonthlySchedule{}
		name = "monthly_digest_schedule"
	}

	s := &DigestSchedule{publisher: publisher}
	s.job = NewJob(name, schedule, clock, func(ctx context.Context, from, to time.Time) error {
		return s.publishJob(frequency, from, to)
	})
	return s
}

func (s *DigestSchedule) Name() string { return s.job.Name() }

func (s *DigestSchedule) Shutdown() {}

// RunModule sleeps until the next scheduled firing, publishes the job,
// and reschedules. Tick errors are logged and swallowed so one bad run
// never stops the chain.
func (s *DigestSchedule) RunModule(ctx context.Context) error {
	for {
		wait := s.job.DurationTillNextRun()
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		if err := s.job.Fire(ctx); err != nil {
			Logger.Log.Errorf("digest schedule %s tick failed: %v", s.Name(), err)
		}
	}
}

func (s *DigestSchedule) publishJob(frequency model.DigestFrequency, from, to time.Time) error {
	payload, err := json.Marshal(digest.Job{
		Frequency:   frequency,
		WindowStart: from,
		WindowEnd:   to,
	})
	if err != nil {
		return errors.Wrap(err, "fail to encode digest job")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(digest.JobsTopic, msg); err != nil {
		return errors.Wrap(err, "fail to publish digest job")
	}
	Logger.Log.Infof("published %s digest job for window [%s, %s]", frequency, from, to)
	return nil
}
