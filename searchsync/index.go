// Package searchsync keeps an eventually consistent search index over
// the post table: an in-memory snapshot rebuilt periodically, refreshed
// incrementally off a queue, and purged of soft deleted posts.
package searchsync

import (
	"strings"
	"sync"

	"github.com/curately/goodreads/feed"
	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/tagset"
)

// Index is the queryable snapshot. Reads never block on a running
// rebuild; they see either the previous or the new snapshot.
type Index struct {
	m     sync.RWMutex
	posts map[string]model.Post
}

func NewIndex() *Index {
	return &Index{posts: map[string]model.Post{}}
}

// Rebuild replaces the whole snapshot.
func (i *Index) Rebuild(posts []model.Post) {
	snapshot := make(map[string]model.Post, len(posts))
	for _, post := range posts {
		if post.IsRemoved {
			continue
		}
		snapshot[post.Id] = post
	}

	i.m.Lock()
	i.posts = snapshot
	i.m.Unlock()
}

// Upsert refreshes a single post in place. Removed posts drop out of
// the snapshot immediately.
func (i *Index) Upsert(post model.Post) {
	i.m.Lock()
	defer i.m.Unlock()
	if post.IsRemoved {
		delete(i.posts, post.Id)
		return
	}
	i.posts[post.Id] = post
}

// Remove drops a post from the snapshot.
func (i *Index) Remove(postId string) {
	i.m.Lock()
	defer i.m.Unlock()
	delete(i.posts, postId)
}

// Len returns the number of indexed posts.
func (i *Index) Len() int {
	i.m.RLock()
	defer i.m.RUnlock()
	return len(i.posts)
}

func (i *Index) snapshot() []model.Post {
	i.m.RLock()
	defer i.m.RUnlock()
	posts := make([]model.Post, 0, len(i.posts))
	for _, post := range i.posts {
		posts = append(posts, post)
	}
	return posts
}

// Query runs a filtered, paginated read over the snapshot.
func (i *Index) Query(spec feed.Spec, page int) []model.Post {
	// Map iteration order is random; pre-sort by id so ties after the
	// spec's sort are deterministic across calls.
	posts := i.snapshot()
	sortById(posts)
	return feed.Paginate(feed.Filter(posts, spec), page, feed.PageSize)
}

// SearchTitle returns posts whose title contains the query as a
// case-insensitive substring, most recently updated first.
func (i *Index) SearchTitle(query string, page int) []model.Post {
	query = strings.ToLower(strings.TrimSpace(query))
	posts := i.snapshot()
	sortById(posts)

	matched := []model.Post{}
	for _, post := range posts {
		if query == "" || strings.Contains(strings.ToLower(post.Title), query) {
			matched = append(matched, post)
		}
	}
	return feed.Paginate(feed.Filter(matched, feed.Spec{}), page, feed.PageSize)
}

// UniqueTags returns every distinct tag in the index.
func (i *Index) UniqueTags() [][]string {
	posts := i.snapshot()
	lists := make([][]string, 0, len(posts))
	for _, post := range posts {
		lists = append(lists, tagset.Parse(post.Tag))
	}
	return lists
}

// UniqueAuthors returns the distinct creator ids of indexed posts.
func (i *Index) UniqueAuthors() []string {
	posts := i.snapshot()
	seen := map[string]bool{}
	authors := []string{}
	for _, post := range posts {
		if !seen[post.CreatedBy] {
			seen[post.CreatedBy] = true
			authors = append(authors, post.CreatedBy)
		}
	}
	return authors
}
