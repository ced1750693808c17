package searchsync

import (
	"sort"

	"github.com/curately/goodreads/model"
)

func sortById(posts []model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Id < posts[j].Id
	})
}
