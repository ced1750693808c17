package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/store"
	Logger "github.com/curately/goodreads/utils/log"
)

// JobsTopic is the event bus topic digest jobs are published on.
const JobsTopic = "digest.jobs"

// Job is one scheduler firing: a frequency and its date window. The
// worker fans it out to every team configured for that frequency.
type Job struct {
	Frequency   model.DigestFrequency `json:"frequency"`
	WindowStart time.Time             `json:"windowStart"`
	WindowEnd   time.Time             `json:"windowEnd"`
}

// Sender delivers a rendered card to a team's messaging endpoint.
type Sender interface {
	Send(ctx context.Context, serviceUrl string, card ListCard) error
}

// DeliveryMarker deduplicates deliveries of the same (team, window).
type DeliveryMarker interface {
	WasDigestSent(ctx context.Context, teamId, windowKey string) (bool, error)
	MarkDigestSent(ctx context.Context, teamId, windowKey string) error
}

// MetricsClient is the subset of the statsd client the worker reports
// delivery outcomes to.
type MetricsClient interface {
	Incr(name string, tags []string, rate float64) error
}

// Datadog counters for delivery monitoring.
const (
	DDOG_DELIVERY_SUCCESS_COUNTER = "goodreads.digest.delivery.success"
	DDOG_DELIVERY_FAILURE_COUNTER = "goodreads.digest.delivery.failure"
)

// Worker subscribes to digest jobs and processes every matching team.
// A failure on one team is logged and never aborts the remaining teams.
type Worker struct {
	posts    store.PostStore
	prefs    store.TeamPreferenceStore
	channels store.TeamChannelStore
	sender   Sender
	marker   DeliveryMarker
	db       *gorm.DB
	statsd   MetricsClient

	subscriber message.Subscriber
}

func NewWorker(
	posts store.PostStore,
	prefs store.TeamPreferenceStore,
	channels store.TeamChannelStore,
	sender Sender,
	marker DeliveryMarker,
	db *gorm.DB,
	statsd MetricsClient,
	subscriber message.Subscriber,
) *Worker {
	return &Worker{
		posts:      posts,
		prefs:      prefs,
		channels:   channels,
		sender:     sender,
		marker:     marker,
		db:         db,
		statsd:     statsd,
		subscriber: subscriber,
	}
}

func (w *Worker) Name() string {
	return "digest_worker"
}

func (w *Worker) Shutdown() {}

// RunModule consumes digest jobs until the context is cancelled.
func (w *Worker) RunModule(ctx context.Context) error {
	msgs, err := w.subscriber.Subscribe(ctx, JobsTopic)
	if err != nil {
		return errors.Wrap(err, "fail to subscribe to digest jobs")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := w.ProcessJobMessage(ctx, msg.Payload); err != nil {
				Logger.Log.Errorf("fail to process digest job: %v", err)
			}
			msg.Ack()
		}
	}
}

// ProcessJobMessage decodes and runs one digest job.
func (w *Worker) ProcessJobMessage(ctx context.Context, payload []byte) error {
	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return errors.Wrap(err, "fail to decode digest job")
	}
	return w.ProcessJob(ctx, job)
}

// ProcessJob loads the window's posts once and digests every team with a
// matching frequency.
func (w *Worker) ProcessJob(ctx context.Context, job Job) error {
	posts, err := w.posts.ListUpdatedBetween(ctx, job.WindowStart, job.WindowEnd)
	if err != nil {
		return errors.Wrap(err, "fail to load posts for digest window")
	}

	prefs, err := w.prefs.ListByFrequency(ctx, job.Frequency)
	if err != nil {
		return errors.Wrap(err, "fail to load team preferences")
	}

	for _, pref := range prefs {
		if err := w.digestTeam(ctx, job, pref, posts); err != nil {
			Logger.Log.Errorf("fail to digest team %s: %v", pref.TeamId, err)
		}
	}
	return nil
}

func (w *Worker) digestTeam(ctx context.Context, job Job, pref model.TeamPreference, posts []model.Post) error {
	selected := SelectPosts(pref, posts, job.WindowStart, job.WindowEnd)
	if len(selected) == 0 {
		return nil
	}

	windowKey := WindowKey(job)
	if w.marker != nil {
		sent, err := w.marker.WasDigestSent(ctx, pref.TeamId, windowKey)
		if err != nil {
			Logger.Log.Errorf("fail to check digest marker for team %s: %v", pref.TeamId, err)
		} else if sent {
			return nil
		}
	}

	channel, err := w.channels.Get(ctx, pref.TeamId)
	if err != nil {
		return errors.Wrap(err, "fail to resolve team channel")
	}
	if channel == nil {
		// Preference without a channel registration, the bot was likely
		// removed without cleanup.
		Logger.Log.Infof("no channel registered for team %s, skipping digest", pref.TeamId)
		return nil
	}

	card := BuildCard(job.Frequency, selected)
	if err := w.sender.Send(ctx, channel.ServiceUrl, card); err != nil {
		w.reportDelivery(DDOG_DELIVERY_FAILURE_COUNTER, job, pref)
		return errors.Wrap(err, "fail to deliver digest card")
	}
	w.reportDelivery(DDOG_DELIVERY_SUCCESS_COUNTER, job, pref)

	if w.marker != nil {
		if err := w.marker.MarkDigestSent(ctx, pref.TeamId, windowKey); err != nil {
			Logger.Log.Errorf("fail to mark digest sent for team %s: %v", pref.TeamId, err)
		}
	}
	w.logDelivery(ctx, job, pref, card, len(selected))
	return nil
}

func (w *Worker) logDelivery(ctx context.Context, job Job, pref model.TeamPreference, card ListCard, count int) {
	if w.db == nil {
		return
	}
	payload, err := json.Marshal(card)
	if err != nil {
		Logger.Log.Errorf("fail to encode digest log payload: %v", err)
		return
	}
	res := w.db.WithContext(ctx).Create(&model.DigestLog{
		Id:          uuid.New().String(),
		TeamId:      pref.TeamId,
		Frequency:   job.Frequency,
		WindowStart: job.WindowStart,
		WindowEnd:   job.WindowEnd,
		PostCount:   count,
		Card:        payload,
		DeliveredAt: time.Now(),
	})
	if res.Error != nil {
		Logger.Log.Errorf("fail to write digest log for team %s: %v", pref.TeamId, res.Error)
	}
}

// Report a delivery outcome to datadog.
func (w *Worker) reportDelivery(name string, job Job, pref model.TeamPreference) {
	if w.statsd == nil {
		return
	}
	err := w.statsd.Incr(name,
		[]string{
			pref.TeamId,
			job.Frequency.String(),
		}, 1)
	if err != nil {
		Logger.Log.Infoln("cannot report delivery outcome")
	}
}

// WindowKey identifies a digest run for delivery deduplication.
func WindowKey(job Job) string {
	return fmt.Sprintf("%s_%s", job.Frequency, job.WindowEnd.UTC().Format("2006-01-02"))
}
