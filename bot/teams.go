// Package bot handles the Teams conversation lifecycle: the install
// event registers where a team's digest card should be delivered, the
// removal event tears that registration down.
package bot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/store"
	Logger "github.com/curately/goodreads/utils/log"
)

const activityConversationUpdate = "conversationUpdate"

// ActivityMember identifies one account in a conversation roster change.
type ActivityMember struct {
	Id string `json:"id"`
}

// ActivityTeam identifies the team a lifecycle activity happened in.
type ActivityTeam struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Activity is the subset of the Bot Framework activity payload this
// service cares about. Everything else in the envelope is ignored.
type Activity struct {
	Type       string         `json:"type"`
	ServiceUrl string         `json:"serviceUrl"`
	Recipient  ActivityMember `json:"recipient"`

	Conversation struct {
		Id   string `json:"id"`
		Name string `json:"name"`
	} `json:"conversation"`

	ChannelData struct {
		Team      ActivityTeam `json:"team"`
		EventType string       `json:"eventType"`
	} `json:"channelData"`

	MembersAdded   []ActivityMember `json:"membersAdded"`
	MembersRemoved []ActivityMember `json:"membersRemoved"`
}

// LifecycleHandler reacts to the bot being added to or removed from a
// team.
type LifecycleHandler struct {
	channels store.TeamChannelStore
	prefs    store.TeamPreferenceStore
}

func NewLifecycleHandler(channels store.TeamChannelStore, prefs store.TeamPreferenceStore) *LifecycleHandler {
	return &LifecycleHandler{channels: channels, prefs: prefs}
}

// RegisterRoutes attaches the Bot Framework messaging endpoint.
func (h *LifecycleHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/api/messages", h.HandleActivity)
}

// HandleActivity dispatches a single incoming activity. Non lifecycle
// activities get a 200 with no action, the Bot Framework retries on
// anything else.
func (h *LifecycleHandler) HandleActivity(c *gin.Context) {
	var activity Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity payload"})
		return
	}

	if activity.Type != activityConversationUpdate || activity.ChannelData.Team.Id == "" {
		c.Status(http.StatusOK)
		return
	}

	botId := activity.Recipient.Id
	switch {
	case containsMember(activity.MembersAdded, botId):
		h.handleInstall(c, activity)
	case containsMember(activity.MembersRemoved, botId):
		h.handleRemoval(c, activity)
	default:
		c.Status(http.StatusOK)
	}
}

func containsMember(members []ActivityMember, id string) bool {
	for _, m := range members {
		if m.Id == id {
			return true
		}
	}
	return false
}

// handleInstall records the conversation endpoint the digest pusher will
// later deliver to. Reinstalls overwrite the previous endpoint.
func (h *LifecycleHandler) handleInstall(c *gin.Context, activity Activity) {
	now := time.Now()
	channel := &model.TeamChannel{
		TeamId:         activity.ChannelData.Team.Id,
		Name:           activity.ChannelData.Team.Name,
		ConversationId: activity.Conversation.Id,
		ServiceUrl:     activity.ServiceUrl,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.channels.Upsert(c.Request.Context(), channel); err != nil {
		Logger.Log.Errorf("fail to register channel for team %s: %v", channel.TeamId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	Logger.Log.Infof("bot installed in team %s", channel.TeamId)
	c.Status(http.StatusOK)
}

// handleRemoval deletes the channel registration and the digest
// preference so the team drops out of future scheduler runs.
func (h *LifecycleHandler) handleRemoval(c *gin.Context, activity Activity) {
	teamId := activity.ChannelData.Team.Id

	if err := h.channels.Delete(c.Request.Context(), teamId); err != nil {
		Logger.Log.Errorf("fail to delete channel for team %s: %v", teamId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}
	if err := h.prefs.Delete(c.Request.Context(), teamId); err != nil {
		Logger.Log.Errorf("fail to delete preference for team %s: %v", teamId, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	Logger.Log.Infof("bot removed from team %s", teamId)
	c.Status(http.StatusOK)
}
