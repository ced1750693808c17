package searchsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curately/goodreads/feed"
	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/store"
	"github.com/curately/goodreads/tagset"
)

func day(n int) time.Time {
	return time.Date(2021, 11, n, 0, 0, 0, 0, time.UTC)
}

func TestRebuildExcludesRemovedPosts(t *testing.T) {
	index := NewIndex()
	index.Rebuild([]model.Post{
		{Id: "1", Title: "kept"},
		{Id: "2", Title: "gone", IsRemoved: true},
	})

	assert.Equal(t, 1, index.Len())
	assert.Empty(t, index.Query(feed.Spec{TagsQuery: []string{"missing"}}, 0))
}

func TestUpsertAndRemove(t *testing.T) {
	index := NewIndex()
	index.Upsert(model.Post{Id: "1", Title: "hello"})
	assert.Equal(t, 1, index.Len())

	// Upserting a removed post evicts it.
	index.Upsert(model.Post{Id: "1", Title: "hello", IsRemoved: true})
	assert.Equal(t, 0, index.Len())

	index.Upsert(model.Post{Id: "2"})
	index.Remove("2")
	assert.Equal(t, 0, index.Len())
}

func TestQueryFiltersAndPaginates(t *testing.T) {
	index := NewIndex()
	index.Rebuild([]model.Post{
		{Id: "1", Tag: "golang", UpdatedAt: day(3)},
		{Id: "2", Tag: "design", UpdatedAt: day(4)},
		{Id: "3", Tag: "Golang", UpdatedAt: day(5)},
	})

	res := index.Query(feed.Spec{TagsQuery: []string{"golang"}}, 0)

	require.Len(t, res, 2)
	assert.Equal(t, "3", res[0].Id)
	assert.Equal(t, "1", res[1].Id)
}

func TestSearchTitle(t *testing.T) {
	index := NewIndex()
	index.Rebuild([]model.Post{
		{Id: "1", Title: "Intro to Go generics", UpdatedAt: day(3)},
		{Id: "2", Title: "Designing APIs", UpdatedAt: day(4)},
	})

	res := index.SearchTitle("go", 0)
	require.Len(t, res, 1)
	assert.Equal(t, "1", res[0].Id)

	assert.Len(t, index.SearchTitle("", 0), 2)
}

func TestUniqueTagsAndAuthors(t *testing.T) {
	index := NewIndex()
	index.Rebuild([]model.Post{
		{Id: "1", Tag: "a;b", CreatedBy: "alice"},
		{Id: "2", Tag: "b;c", CreatedBy: "alice"},
	})

	top := tagset.TopByFrequency(index.UniqueTags(), 50)
	assert.Equal(t, []string{"b", "a", "c"}, top)
	assert.Equal(t, []string{"alice"}, index.UniqueAuthors())
}

type purgePostStore struct {
	posts   map[string]model.Post
	deleted []string
}

func (f *purgePostStore) Get(ctx context.Context, id string) (*model.Post, error) {
	if post, ok := f.posts[id]; ok {
		return &post, nil
	}
	return nil, nil
}
func (f *purgePostStore) Upsert(ctx context.Context, post *model.Post) error { return nil }
func (f *purgePostStore) UpdateVotesIfUnchanged(ctx context.Context, post *model.Post) error {
	return nil
}
func (f *purgePostStore) ListAll(ctx context.Context) ([]model.Post, error) {
	res := []model.Post{}
	for _, post := range f.posts {
		if !post.IsRemoved {
			res = append(res, post)
		}
	}
	return res, nil
}
func (f *purgePostStore) ListUpdatedBetween(ctx context.Context, from, to time.Time) ([]model.Post, error) {
	return nil, nil
}
func (f *purgePostStore) ListRemovedIds(ctx context.Context) ([]string, error) {
	ids := []string{}
	for id, post := range f.posts {
		if post.IsRemoved {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
func (f *purgePostStore) DeleteByIds(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.posts, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

var _ store.PostStore = (*purgePostStore)(nil)

func TestSyncOncePurgesAndRebuilds(t *testing.T) {
	posts := &purgePostStore{posts: map[string]model.Post{
		"live":    {Id: "live"},
		"removed": {Id: "removed", IsRemoved: true},
	}}
	index := NewIndex()
	syncer := NewSyncer(posts, index, DefaultSyncInterval)

	require.NoError(t, syncer.SyncOnce(context.Background()))

	assert.Equal(t, []string{"removed"}, posts.deleted)
	assert.Equal(t, 1, index.Len())
}

type fakeQueueWriter struct {
	sent []string
}

func (f *fakeQueueWriter) SendMessage(body string) error {
	f.sent = append(f.sent, body)
	return nil
}

func TestQueueRefresherEncodesPostId(t *testing.T) {
	writer := &fakeQueueWriter{}
	refresher := NewQueueRefresher(writer)

	require.NoError(t, refresher.RequestRefresh(context.Background(), "p1"))
	require.Len(t, writer.sent, 1)
	assert.JSONEq(t, `{"postId":"p1"}`, writer.sent[0])
}
