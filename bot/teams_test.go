package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curately/goodreads/model"
)

type fakeChannelStore struct {
	channels map[string]*model.TeamChannel
}

func (f *fakeChannelStore) Get(ctx context.Context, teamId string) (*model.TeamChannel, error) {
	channel, ok := f.channels[teamId]
	if !ok {
		return nil, nil
	}
	copied := *channel
	return &copied, nil
}

func (f *fakeChannelStore) Upsert(ctx context.Context, channel *model.TeamChannel) error {
	copied := *channel
	f.channels[channel.TeamId] = &copied
	return nil
}

func (f *fakeChannelStore) Delete(ctx context.Context, teamId string) error {
	delete(f.channels, teamId)
	return nil
}

type fakePreferenceStore struct {
	prefs map[string]*model.TeamPreference
}

func (f *fakePreferenceStore) Get(ctx context.Context, teamId string) (*model.TeamPreference, error) {
	pref, ok := f.prefs[teamId]
	if !ok {
		return nil, nil
	}
	copied := *pref
	return &copied, nil
}

func (f *fakePreferenceStore) Upsert(ctx context.Context, pref *model.TeamPreference) error {
	copied := *pref
	f.prefs[pref.TeamId] = &copied
	return nil
}

func (f *fakePreferenceStore) Delete(ctx context.Context, teamId string) error {
	delete(f.prefs, teamId)
	return nil
}

func (f *fakePreferenceStore) ListByFrequency(ctx context.Context, freq model.DigestFrequency) ([]model.TeamPreference, error) {
	return nil, nil
}

func postActivity(router *gin.Engine, activity map[string]interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(activity)
	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func newTestRouter(channels *fakeChannelStore, prefs *fakePreferenceStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewLifecycleHandler(channels, prefs).RegisterRoutes(router)
	return router
}

func TestInstallRegistersChannel(t *testing.T) {
	channels := &fakeChannelStore{channels: map[string]*model.TeamChannel{}}
	prefs := &fakePreferenceStore{prefs: map[string]*model.TeamPreference{}}
	router := newTestRouter(channels, prefs)

	rec := postActivity(router, map[string]interface{}{
		"type":       "conversationUpdate",
		"serviceUrl": "https://smba.trafficmanager.net/amer/",
		"recipient":  map[string]string{"id": "bot_id"},
		"conversation": map[string]string{
			"id": "19:channel@thread.tacv2",
		},
		"channelData": map[string]interface{}{
			"team":      map[string]string{"id": "team_1", "name": "Engineering"},
			"eventType": "teamMemberAdded",
		},
		"membersAdded": []map[string]string{{"id": "bot_id"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	channel := channels.channels["team_1"]
	require.NotNil(t, channel)
	assert.Equal(t, "19:channel@thread.tacv2", channel.ConversationId)
	assert.Equal(t, "https://smba.trafficmanager.net/amer/", channel.ServiceUrl)
	assert.Equal(t, "Engineering", channel.Name)
}

func TestRemovalDeletesChannelAndPreference(t *testing.T) {
	channels := &fakeChannelStore{channels: map[string]*model.TeamChannel{
		"team_1": {TeamId: "team_1"},
	}}
	prefs := &fakePreferenceStore{prefs: map[string]*model.TeamPreference{
		"team_1": {TeamId: "team_1", Tag: "Tech"},
	}}
	router := newTestRouter(channels, prefs)

	rec := postActivity(router, map[string]interface{}{
		"type":      "conversationUpdate",
		"recipient": map[string]string{"id": "bot_id"},
		"channelData": map[string]interface{}{
			"team": map[string]string{"id": "team_1"},
		},
		"membersRemoved": []map[string]string{{"id": "bot_id"}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, channels.channels)
	assert.Empty(t, prefs.prefs)
}

func TestUnrelatedMemberChangeIsIgnored(t *testing.T) {
	channels := &fakeChannelStore{channels: map[string]*model.TeamChannel{}}
	prefs := &fakePreferenceStore{prefs: map[string]*model.TeamPreference{}}
	router := newTestRouter(channels, prefs)

	// A human joining the team must not register anything.
	rec := postActivity(router, map[string]interface{}{
		"type":      "conversationUpdate",
		"recipient": map[string]string{"id": "bot_id"},
		"channelData": map[string]interface{}{
			"team": map[string]string{"id": "team_1"},
		},
		"membersAdded": []map[string]string{{"id": "human_user"}},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, channels.channels)
}

func TestNonLifecycleActivityIsIgnored(t *testing.T) {
	channels := &fakeChannelStore{channels: map[string]*model.TeamChannel{}}
	prefs := &fakePreferenceStore{prefs: map[string]*model.TeamPreference{}}
	router := newTestRouter(channels, prefs)

	rec := postActivity(router, map[string]interface{}{
		"type": "message",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, channels.channels)
}
