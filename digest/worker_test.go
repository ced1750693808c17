package digest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curately/goodreads/model"
)

type fakePosts struct {
	posts []model.Post
}

func (f *fakePosts) Get(ctx context.Context, id string) (*model.Post, error) { return nil, nil }
func (f *fakePosts) Upsert(ctx context.Context, post *model.Post) error      { return nil }
func (f *fakePosts) UpdateVotesIfUnchanged(ctx context.Context, post *model.Post) error {
	return nil
}
func (f *fakePosts) ListAll(ctx context.Context) ([]model.Post, error) { return f.posts, nil }
func (f *fakePosts) ListUpdatedBetween(ctx context.Context, from, to time.Time) ([]model.Post, error) {
	res := []model.Post{}
	for _, p := range f.posts {
		if !p.UpdatedAt.Before(from) && !p.UpdatedAt.After(to) {
			res = append(res, p)
		}
	}
	return res, nil
}
func (f *fakePosts) ListRemovedIds(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakePosts) DeleteByIds(ctx context.Context, ids []string) error  { return nil }

type fakePrefs struct {
	prefs []model.TeamPreference
}

func (f *fakePrefs) Get(ctx context.Context, teamId string) (*model.TeamPreference, error) {
	return nil, nil
}
func (f *fakePrefs) Upsert(ctx context.Context, pref *model.TeamPreference) error { return nil }
func (f *fakePrefs) Delete(ctx context.Context, teamId string) error              { return nil }
func (f *fakePrefs) ListByFrequency(ctx context.Context, freq model.DigestFrequency) ([]model.TeamPreference, error) {
	res := []model.TeamPreference{}
	for _, p := range f.prefs {
		if p.DigestFrequency == freq {
			res = append(res, p)
		}
	}
	return res, nil
}

type fakeChannels struct {
	channels map[string]*model.TeamChannel
}

func (f *fakeChannels) Get(ctx context.Context, teamId string) (*model.TeamChannel, error) {
	return f.channels[teamId], nil
}
func (f *fakeChannels) Upsert(ctx context.Context, channel *model.TeamChannel) error { return nil }
func (f *fakeChannels) Delete(ctx context.Context, teamId string) error              { return nil }

type fakeSender struct {
	sent    []ListCard
	urls    []string
	err     error
	failUrl string
}

func (f *fakeSender) Send(ctx context.Context, serviceUrl string, card ListCard) error {
	if f.err != nil {
		return f.err
	}
	if f.failUrl != "" && serviceUrl == f.failUrl {
		return errors.New("send failed")
	}
	f.sent = append(f.sent, card)
	f.urls = append(f.urls, serviceUrl)
	return nil
}

type fakeMarker struct {
	marked map[string]bool
}

func (f *fakeMarker) key(teamId, windowKey string) string { return teamId + "__" + windowKey }

func (f *fakeMarker) WasDigestSent(ctx context.Context, teamId, windowKey string) (bool, error) {
	return f.marked[f.key(teamId, windowKey)], nil
}

func (f *fakeMarker) MarkDigestSent(ctx context.Context, teamId, windowKey string) error {
	f.marked[f.key(teamId, windowKey)] = true
	return nil
}

func weeklyJob() Job {
	return Job{
		Frequency:   model.DigestWeekly,
		WindowStart: day(1),
		WindowEnd:   day(8),
	}
}

func newWorkerFixture(posts []model.Post, prefs []model.TeamPreference, channels map[string]*model.TeamChannel, sender *fakeSender) *Worker {
	return NewWorker(
		&fakePosts{posts: posts},
		&fakePrefs{prefs: prefs},
		&fakeChannels{channels: channels},
		sender,
		&fakeMarker{marked: map[string]bool{}},
		nil,
		nil,
		nil,
	)
}

type fakeStatsd struct {
	counts map[string]int
	tags   map[string][][]string
}

func (f *fakeStatsd) Incr(name string, tags []string, rate float64) error {
	if f.counts == nil {
		f.counts = map[string]int{}
		f.tags = map[string][][]string{}
	}
	f.counts[name]++
	f.tags[name] = append(f.tags[name], tags)
	return nil
}

func TestProcessJobDeliversMatchingTeams(t *testing.T) {
	posts := []model.Post{
		{Id: "1", Tag: "golang", Title: "Go post", UpdatedAt: day(3)},
		{Id: "2", Tag: "design", Title: "Design post", UpdatedAt: day(4)},
	}
	prefs := []model.TeamPreference{
		{TeamId: "team-go", Tag: "golang", DigestFrequency: model.DigestWeekly},
		{TeamId: "team-design", Tag: "design", DigestFrequency: model.DigestWeekly},
		{TeamId: "team-monthly", Tag: "golang", DigestFrequency: model.DigestMonthly},
	}
	channels := map[string]*model.TeamChannel{
		"team-go":     {TeamId: "team-go", ServiceUrl: "http://go.example"},
		"team-design": {TeamId: "team-design", ServiceUrl: "http://design.example"},
	}
	sender := &fakeSender{}
	worker := newWorkerFixture(posts, prefs, channels, sender)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))

	// Only the two weekly teams got a card, each with its own match.
	require.Len(t, sender.sent, 2)
	assert.ElementsMatch(t, []string{"http://go.example", "http://design.example"}, sender.urls)
	for _, card := range sender.sent {
		assert.Len(t, card.Content.Items, 1)
	}
}

func TestProcessJobSkipsEmptySelection(t *testing.T) {
	prefs := []model.TeamPreference{
		{TeamId: "t1", Tag: "golang", DigestFrequency: model.DigestWeekly},
	}
	sender := &fakeSender{}
	worker := newWorkerFixture(nil, prefs, map[string]*model.TeamChannel{
		"t1": {TeamId: "t1", ServiceUrl: "http://t1.example"},
	}, sender)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))
	assert.Empty(t, sender.sent)
}

func TestProcessJobDeduplicatesByWindow(t *testing.T) {
	posts := []model.Post{{Id: "1", Tag: "golang", UpdatedAt: day(3)}}
	prefs := []model.TeamPreference{
		{TeamId: "t1", Tag: "golang", DigestFrequency: model.DigestWeekly},
	}
	sender := &fakeSender{}
	worker := newWorkerFixture(posts, prefs, map[string]*model.TeamChannel{
		"t1": {TeamId: "t1", ServiceUrl: "http://t1.example"},
	}, sender)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))
	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))

	assert.Len(t, sender.sent, 1)
}

func TestProcessJobContinuesPastFailingTeam(t *testing.T) {
	posts := []model.Post{{Id: "1", Tag: "golang", UpdatedAt: day(3)}}
	prefs := []model.TeamPreference{
		{TeamId: "broken", Tag: "golang", DigestFrequency: model.DigestWeekly},
		{TeamId: "ok", Tag: "golang", DigestFrequency: model.DigestWeekly},
	}
	// "broken" has no channel registration; "ok" delivers fine.
	sender := &fakeSender{}
	worker := newWorkerFixture(posts, prefs, map[string]*model.TeamChannel{
		"ok": {TeamId: "ok", ServiceUrl: "http://ok.example"},
	}, sender)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))
	assert.Equal(t, []string{"http://ok.example"}, sender.urls)
}

func TestProcessJobMessageDecodesPayload(t *testing.T) {
	payload, err := json.Marshal(weeklyJob())
	require.NoError(t, err)

	sender := &fakeSender{}
	worker := newWorkerFixture(nil, nil, nil, sender)

	require.NoError(t, worker.ProcessJobMessage(context.Background(), payload))
	assert.Error(t, worker.ProcessJobMessage(context.Background(), []byte("not json")))
}

func TestDeliveryFailureDoesNotMarkSent(t *testing.T) {
	posts := []model.Post{{Id: "1", Tag: "golang", UpdatedAt: day(3)}}
	prefs := []model.TeamPreference{
		{TeamId: "t1", Tag: "golang", DigestFrequency: model.DigestWeekly},
	}
	sender := &fakeSender{err: errors.New("endpoint down")}
	worker := newWorkerFixture(posts, prefs, map[string]*model.TeamChannel{
		"t1": {TeamId: "t1", ServiceUrl: "http://t1.example"},
	}, sender)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))

	// A later retry of the same window still delivers.
	sender.err = nil
	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))
	assert.Len(t, sender.sent, 1)
}

func TestDeliveryOutcomesReported(t *testing.T) {
	posts := []model.Post{
		{Id: "1", Tag: "golang", Title: "Go post", UpdatedAt: day(3)},
	}
	prefs := []model.TeamPreference{
		{TeamId: "team-ok", Tag: "golang", DigestFrequency: model.DigestWeekly},
		{TeamId: "team-down", Tag: "golang", DigestFrequency: model.DigestWeekly},
	}
	channels := map[string]*model.TeamChannel{
		"team-ok":   {TeamId: "team-ok", ServiceUrl: "http://ok.example"},
		"team-down": {TeamId: "team-down", ServiceUrl: "http://down.example"},
	}
	sender := &fakeSender{failUrl: "http://down.example"}
	statsd := &fakeStatsd{}
	worker := NewWorker(
		&fakePosts{posts: posts},
		&fakePrefs{prefs: prefs},
		&fakeChannels{channels: channels},
		sender,
		&fakeMarker{marked: map[string]bool{}},
		nil,
		statsd,
		nil,
	)

	require.NoError(t, worker.ProcessJob(context.Background(), weeklyJob()))

	assert.Equal(t, 1, statsd.counts[DDOG_DELIVERY_SUCCESS_COUNTER])
	assert.Equal(t, 1, statsd.counts[DDOG_DELIVERY_FAILURE_COUNTER])
	// Outcome counters are tagged with the team and the run frequency.
	require.Len(t, statsd.tags[DDOG_DELIVERY_SUCCESS_COUNTER], 1)
	assert.Equal(t, []string{"team-ok", "Weekly"}, statsd.tags[DDOG_DELIVERY_SUCCESS_COUNTER][0])
	require.Len(t, statsd.tags[DDOG_DELIVERY_FAILURE_COUNTER], 1)
	assert.Equal(t, []string{"team-down", "Weekly"}, statsd.tags[DDOG_DELIVERY_FAILURE_COUNTER][0])
}
