// Package server exposes the REST surface consumed by the tab SPA and
// the messaging extension: post CRUD, votes, private lists, the filtered
// discover feed, search reads and team digest preferences.
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/curately/goodreads/feed"
	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/preview"
	"github.com/curately/goodreads/searchsync"
	"github.com/curately/goodreads/store"
	"github.com/curately/goodreads/tagset"
	Logger "github.com/curately/goodreads/utils/log"
	"github.com/curately/goodreads/votes"
)

const (
	// TopTagsLimit caps the tag cloud on the discover tab.
	TopTagsLimit = 50
	// TypedTagsLimit caps the search-as-you-type tag picker.
	TypedTagsLimit = 20
)

// genericError is returned on any internal failure. Handlers never leak
// storage or upstream error detail to the client.
var genericError = gin.H{"error": "something went wrong"}

// SavedStatusStore caches per-(user, post) saved flags so list reads
// can decorate posts without one bookmark query per row.
type SavedStatusStore interface {
	GetPostsSavedStatus(postIds []string, userId string) ([]bool, error)
	SetPostsSavedStatus(postIds []string, userId string, saved bool) error
}

// Handlers bundles every dependency of the REST surface.
type Handlers struct {
	posts     store.PostStore
	bookmarks store.BookmarkStore
	prefs     store.TeamPreferenceStore
	ledger      *votes.Ledger
	index       *searchsync.Index
	refresher   votes.IndexRefresher
	previews    *preview.Fetcher
	savedStatus SavedStatusStore
}

func NewHandlers(
	posts store.PostStore,
	bookmarks store.BookmarkStore,
	prefs store.TeamPreferenceStore,
	ledger *votes.Ledger,
	index *searchsync.Index,
	refresher votes.IndexRefresher,
	previews *preview.Fetcher,
	savedStatus SavedStatusStore,
) *Handlers {
	return &Handlers{
		posts:       posts,
		bookmarks:   bookmarks,
		prefs:       prefs,
		ledger:      ledger,
		index:       index,
		refresher:   refresher,
		previews:    previews,
		savedStatus: savedStatus,
	}
}

// RegisterRoutes attaches every handler to the router.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	router.GET("/posts", h.ListPosts)
	router.POST("/posts", h.CreatePost)
	router.GET("/posts/search", h.SearchPosts)
	router.GET("/posts/:id", h.GetPost)
	router.PATCH("/posts/:id", h.UpdatePost)
	router.DELETE("/posts/:id", h.DeletePost)

	router.POST("/posts/:id/vote", h.AddVote)
	router.DELETE("/posts/:id/vote", h.RemoveVote)

	router.GET("/me/posts", h.ListSavedPosts)
	router.POST("/posts/:id/save", h.SavePost)
	router.DELETE("/posts/:id/save", h.UnsavePost)

	router.GET("/tags", h.TopTags)
	router.GET("/tags/search", h.SearchTags)
	router.GET("/authors", h.ListAuthors)

	router.GET("/teams/:teamId/preference", h.GetPreference)
	router.PUT("/teams/:teamId/preference", h.UpsertPreference)
}

// callerUserId returns the user id the JWT middleware stamped into the
// request. Empty when auth is bypassed in development.
func callerUserId(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

// specFromQuery builds a filter spec from the list query params. Multi
// valued params travel semicolon separated, matching the storage form.
func specFromQuery(c *gin.Context) feed.Spec {
	spec := feed.Spec{
		TagsQuery: tagset.Parse(c.Query("tags")),
	}
	if types := c.Query("types"); types != "" {
		for _, t := range strings.Split(types, tagset.Delimiter) {
			if t = strings.TrimSpace(t); t != "" {
				spec.TypesQuery = append(spec.TypesQuery, t)
			}
		}
	}
	if authors := c.Query("authors"); authors != "" {
		for _, a := range strings.Split(authors, tagset.Delimiter) {
			if a = strings.TrimSpace(a); a != "" {
				spec.AuthorsQuery = append(spec.AuthorsQuery, a)
			}
		}
	}
	if c.Query("sortBy") == "popularity" {
		spec.SortBy = feed.SortByPopularity
	}
	return spec
}

// ListPosts serves the filtered discover feed off the search index.
func (h *Handlers) ListPosts(c *gin.Context) {
	posts := h.index.Query(specFromQuery(c), pageParam(c))
	c.JSON(http.StatusOK, h.markSaved(c, toPostDTOs(posts)))
}

// SearchPosts serves the title substring search off the search index.
func (h *Handlers) SearchPosts(c *gin.Context) {
	posts := h.index.SearchTitle(c.Query("title"), pageParam(c))
	c.JSON(http.StatusOK, h.markSaved(c, toPostDTOs(posts)))
}

// markSaved decorates list reads with the caller's saved flags off the
// redis cache. Best effort: a cache error just leaves the flags false.
func (h *Handlers) markSaved(c *gin.Context, dtos []PostDTO) []PostDTO {
	userId := callerUserId(c)
	if h.savedStatus == nil || userId == "" || len(dtos) == 0 {
		return dtos
	}

	ids := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		ids = append(ids, dto.Id)
	}
	saved, err := h.savedStatus.GetPostsSavedStatus(ids, userId)
	if err != nil || len(saved) != len(dtos) {
		Logger.Log.Errorf("fail to load saved status for user %s: %v", userId, err)
		return dtos
	}
	for i := range dtos {
		dtos[i].IsSaved = saved[i]
	}
	return dtos
}

func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Logger.Log.Errorf("fail to load post %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	if post == nil || post.IsRemoved {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, toPostDTO(*post))
}

func (h *Handlers) CreatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if input.ContentUrl == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contentUrl is required"})
		return
	}

	postType, ok := model.ParsePostType(input.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown post type"})
		return
	}

	title := strings.TrimSpace(input.Title)
	description := input.Description
	if title == "" && h.previews != nil {
		// Best effort: a scrape failure never blocks the share.
		if p, err := h.previews.Fetch(c.Request.Context(), input.ContentUrl); err == nil {
			title = p.Title
			if description == "" {
				description = p.Description
			}
		}
	}

	now := time.Now()
	post := &model.Post{
		Id:          uuid.New().String(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Type:        postType,
		Title:       title,
		Description: description,
		ContentUrl:  input.ContentUrl,
		Tag:         tagset.Join(tagset.Parse(tagset.Join(input.Tags))),
		CreatedBy:   callerUserId(c),
	}
	if err := h.posts.Upsert(c.Request.Context(), post); err != nil {
		Logger.Log.Errorf("fail to create post: %v", err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}

	h.index.Upsert(*post)
	h.requestRefresh(c, post.Id)
	c.JSON(http.StatusCreated, toPostDTO(*post))
}

func (h *Handlers) UpdatePost(c *gin.Context) {
	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Logger.Log.Errorf("fail to load post %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	if post == nil || post.IsRemoved {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if post.CreatedBy != callerUserId(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can edit a post"})
		return
	}

	if input.Type != "" {
		postType, ok := model.ParsePostType(input.Type)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown post type"})
			return
		}
		post.Type = postType
	}
	if input.Title != "" {
		post.Title = input.Title
	}
	if input.Description != "" {
		post.Description = input.Description
	}
	if input.ContentUrl != "" {
		post.ContentUrl = input.ContentUrl
	}
	if input.Tags != nil {
		post.Tag = tagset.Join(tagset.Parse(tagset.Join(input.Tags)))
	}
	post.UpdatedAt = time.Now()

	if err := h.posts.Upsert(c.Request.Context(), post); err != nil {
		Logger.Log.Errorf("fail to update post %s: %v", post.Id, err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}

	h.index.Upsert(*post)
	h.requestRefresh(c, post.Id)
	c.JSON(http.StatusOK, toPostDTO(*post))
}

// DeletePost soft deletes: the row is kept until the periodic purge so
// saved-post lists can still resolve it.
func (h *Handlers) DeletePost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Logger.Log.Errorf("fail to load post %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	if post == nil || post.IsRemoved {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if post.CreatedBy != callerUserId(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the author can delete a post"})
		return
	}

	post.IsRemoved = true
	post.UpdatedAt = time.Now()
	if err := h.posts.Upsert(c.Request.Context(), post); err != nil {
		Logger.Log.Errorf("fail to delete post %s: %v", post.Id, err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}

	h.index.Remove(post.Id)
	h.requestRefresh(c, post.Id)
	c.Status(http.StatusNoContent)
}

func (h *Handlers) AddVote(c *gin.Context) {
	applied, err := h.ledger.AddVote(c.Request.Context(), callerUserId(c), c.Param("id"))
	if err == nil && applied {
		h.reindexPost(c, c.Param("id"))
	}
	h.writeVoteResult(c, applied, err)
}

func (h *Handlers) RemoveVote(c *gin.Context) {
	applied, err := h.ledger.RemoveVote(c.Request.Context(), callerUserId(c), c.Param("id"))
	if err == nil && applied {
		h.reindexPost(c, c.Param("id"))
	}
	h.writeVoteResult(c, applied, err)
}

// reindexPost re-reads a post after its counter changed and refreshes
// the serving snapshot in-process. Write handlers update the snapshot
// directly; the queued refresh message keeps other replicas converging.
func (h *Handlers) reindexPost(c *gin.Context, postId string) {
	post, err := h.posts.Get(c.Request.Context(), postId)
	if err != nil {
		Logger.Log.Errorf("fail to reload post %s for reindex: %v", postId, err)
		return
	}
	if post == nil {
		h.index.Remove(postId)
		return
	}
	h.index.Upsert(*post)
}

func (h *Handlers) writeVoteResult(c *gin.Context, applied bool, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"applied": applied})
	case errors.Is(err, votes.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	case errors.Is(err, votes.ErrCounterConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "post is busy, try again"})
	default:
		Logger.Log.Errorf("vote operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, genericError)
	}
}

// ListSavedPosts returns the caller's private list, most recently saved
// first, capped at one page.
func (h *Handlers) ListSavedPosts(c *gin.Context) {
	posts, err := h.bookmarks.ListRecentPosts(c.Request.Context(), callerUserId(c), feed.PageSize)
	if err != nil {
		Logger.Log.Errorf("fail to list saved posts: %v", err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}

	// Everything on this list is saved by definition.
	dtos := toPostDTOs(posts)
	for i := range dtos {
		dtos[i].IsSaved = true
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *Handlers) SavePost(c *gin.Context) {
	if err := h.bookmarks.Add(c.Request.Context(), callerUserId(c), c.Param("id")); err != nil {
		Logger.Log.Errorf("fail to save post %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	h.cacheSavedStatus(c, c.Param("id"), true)
	c.Status(http.StatusNoContent)
}

func (h *Handlers) UnsavePost(c *gin.Context) {
	if err := h.bookmarks.Remove(c.Request.Context(), callerUserId(c), c.Param("id")); err != nil {
		Logger.Log.Errorf("fail to unsave post %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	h.cacheSavedStatus(c, c.Param("id"), false)
	c.Status(http.StatusNoContent)
}

func (h *Handlers) cacheSavedStatus(c *gin.Context, postId string, saved bool) {
	if h.savedStatus == nil {
		return
	}
	if err := h.savedStatus.SetPostsSavedStatus([]string{postId}, callerUserId(c), saved); err != nil {
		Logger.Log.Errorf("fail to cache saved status for post %s: %v", postId, err)
	}
}

// TopTags serves the discover tab's tag cloud.
func (h *Handlers) TopTags(c *gin.Context) {
	c.JSON(http.StatusOK, tagset.TopByFrequency(h.index.UniqueTags(), TopTagsLimit))
}

// SearchTags serves the search-as-you-type tag picker.
func (h *Handlers) SearchTags(c *gin.Context) {
	all := tagset.TopByFrequency(h.index.UniqueTags(), -1)
	matched := tagset.FilterBySubstring(all, c.Query("q"))
	if len(matched) > TypedTagsLimit {
		matched = matched[:TypedTagsLimit]
	}
	c.JSON(http.StatusOK, matched)
}

func (h *Handlers) ListAuthors(c *gin.Context) {
	c.JSON(http.StatusOK, h.index.UniqueAuthors())
}

func (h *Handlers) GetPreference(c *gin.Context) {
	pref, err := h.prefs.Get(c.Request.Context(), c.Param("teamId"))
	if err != nil {
		Logger.Log.Errorf("fail to load preference for team %s: %v", c.Param("teamId"), err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	if pref == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preference not found"})
		return
	}
	c.JSON(http.StatusOK, toPreferenceDTO(*pref))
}

func (h *Handlers) UpsertPreference(c *gin.Context) {
	var input PreferenceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	frequency, ok := model.ParseDigestFrequency(input.DigestFrequency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown digest frequency"})
		return
	}

	pref := &model.TeamPreference{
		TeamId:          c.Param("teamId"),
		Tag:             tagset.Join(tagset.Parse(tagset.Join(input.Tags))),
		DigestFrequency: frequency,
		UpdatedBy:       callerUserId(c),
		UpdatedAt:       time.Now(),
	}
	if err := h.prefs.Upsert(c.Request.Context(), pref); err != nil {
		Logger.Log.Errorf("fail to upsert preference for team %s: %v", pref.TeamId, err)
		c.JSON(http.StatusInternalServerError, genericError)
		return
	}
	c.JSON(http.StatusOK, toPreferenceDTO(*pref))
}

func (h *Handlers) requestRefresh(c *gin.Context, postId string) {
	if h.refresher == nil {
		return
	}
	if err := h.refresher.RequestRefresh(c.Request.Context(), postId); err != nil {
		Logger.Log.Errorf("fail to request index refresh for post %s: %v", postId, err)
	}
}
