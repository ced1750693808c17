// Package digest selects, renders and delivers the periodic digest
// notification each team receives for its configured tags.
package digest

import (
	"sort"
	"time"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/tagset"
)

// MaxPosts caps every digest at the 15 most recent matching posts.
const MaxPosts = 15

// SelectPosts picks the posts for one team's digest: posts updated
// within [from, to], walked in recency order, kept on the first
// case-insensitive match against any preference tag, capped at MaxPosts.
// This is "first N matches in recency order", not a global ranking: the
// preference tag ordering only short-circuits the per-post scan.
func SelectPosts(pref model.TeamPreference, posts []model.Post, from, to time.Time) []model.Post {
	prefTags := tagset.Parse(pref.Tag)
	if len(prefTags) == 0 {
		return []model.Post{}
	}

	inWindow := []model.Post{}
	for _, post := range posts {
		if post.IsRemoved {
			continue
		}
		if post.UpdatedAt.Before(from) || post.UpdatedAt.After(to) {
			continue
		}
		inWindow = append(inWindow, post)
	}

	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].UpdatedAt.After(inWindow[j].UpdatedAt)
	})

	selected := []model.Post{}
	seen := map[string]bool{}
	for _, post := range inWindow {
		if len(selected) >= MaxPosts {
			break
		}
		if seen[post.Id] {
			continue
		}
		postTags := tagset.Parse(post.Tag)
		for _, prefTag := range prefTags {
			if tagset.Contains(postTags, prefTag) {
				selected = append(selected, post)
				seen[post.Id] = true
				break
			}
		}
	}
	return selected
}
