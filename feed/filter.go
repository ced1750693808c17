// Package feed implements the filtered discover feed: given a set of
// posts and a filter spec it computes the matching subset with a stable,
// deterministic ordering suitable for pagination.
package feed

import (
	"sort"
	"strings"
	"time"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/tagset"
)

const (
	// TagsQueryAll is the sentinel tag query that matches every post.
	TagsQueryAll = "*"

	// PageSize is the fixed page size of every list read in the system.
	PageSize = 50
)

// SortBy selects the feed ordering.
type SortBy int

const (
	SortByNewest SortBy = iota
	SortByPopularity
)

// Spec describes one filtered read. Empty query slices impose no
// constraint; non-empty ones AND together.
type Spec struct {
	// TagsQuery matches posts sharing at least one tag, case-insensitively.
	// The single element TagsQueryAll matches all posts.
	TagsQuery []string

	// TypesQuery matches the post's type display name exactly,
	// case-insensitively.
	TypesQuery []string

	// AuthorsQuery matches the post's creator id exactly,
	// case-insensitively.
	AuthorsQuery []string

	SortBy SortBy

	// From/To bound UpdatedAt inclusively when non-nil.
	From *time.Time
	To   *time.Time
}

// MatchesAllTags reports whether the spec's tag query is the match-all
// sentinel or absent.
func (s Spec) MatchesAllTags() bool {
	if len(s.TagsQuery) == 0 {
		return true
	}
	return len(s.TagsQuery) == 1 && s.TagsQuery[0] == TagsQueryAll
}

func containsFold(hay []string, needle string) bool {
	for _, h := range hay {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// Matches reports whether a single post passes every predicate of the
// spec. Soft deleted posts never match.
func (s Spec) Matches(post model.Post) bool {
	if post.IsRemoved {
		return false
	}
	if !s.MatchesAllTags() {
		if len(tagset.Intersect(tagset.Parse(post.Tag), s.TagsQuery)) == 0 {
			return false
		}
	}
	if len(s.TypesQuery) > 0 && !containsFold(s.TypesQuery, post.Type.Info().Name) {
		return false
	}
	if len(s.AuthorsQuery) > 0 && !containsFold(s.AuthorsQuery, post.CreatedBy) {
		return false
	}
	if s.From != nil && post.UpdatedAt.Before(*s.From) {
		return false
	}
	if s.To != nil && post.UpdatedAt.After(*s.To) {
		return false
	}
	return true
}

// Filter returns the posts matching the spec, sorted. The sort is stable
// so ties keep their input order, which keeps pagination deterministic.
func Filter(posts []model.Post, spec Spec) []model.Post {
	res := []model.Post{}
	for _, post := range posts {
		if spec.Matches(post) {
			res = append(res, post)
		}
	}

	switch spec.SortBy {
	case SortByPopularity:
		sort.SliceStable(res, func(i, j int) bool {
			return res[i].TotalVotes > res[j].TotalVotes
		})
	default:
		sort.SliceStable(res, func(i, j int) bool {
			return res[i].UpdatedAt.After(res[j].UpdatedAt)
		})
	}
	return res
}

// Paginate skips page*pageSize posts and takes pageSize.
func Paginate(posts []model.Post, page, pageSize int) []model.Post {
	if page < 0 || pageSize <= 0 {
		return []model.Post{}
	}
	start := page * pageSize
	if start >= len(posts) {
		return []model.Post{}
	}
	end := start + pageSize
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end]
}
