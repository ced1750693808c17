package digest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/curately/goodreads/model"
)

func day(n int) time.Time {
	return time.Date(2021, 11, n, 0, 0, 0, 0, time.UTC)
}

func TestSelectPostsMatchesPreferenceTags(t *testing.T) {
	posts := []model.Post{
		{Id: "1", Tag: "a;b", UpdatedAt: day(5), TotalVotes: 10},
		{Id: "2", Tag: "c", UpdatedAt: day(6), TotalVotes: 1},
	}
	pref := model.TeamPreference{TeamId: "t1", Tag: "b"}

	selected := SelectPosts(pref, posts, day(1), day(7))

	assert.Len(t, selected, 1)
	assert.Equal(t, "1", selected[0].Id)
}

func TestSelectPostsWindowIsInclusive(t *testing.T) {
	posts := []model.Post{
		{Id: "before", Tag: "a", UpdatedAt: day(1).Add(-time.Second)},
		{Id: "start", Tag: "a", UpdatedAt: day(1)},
		{Id: "end", Tag: "a", UpdatedAt: day(7)},
		{Id: "after", Tag: "a", UpdatedAt: day(7).Add(time.Second)},
	}
	pref := model.TeamPreference{Tag: "a"}

	selected := SelectPosts(pref, posts, day(1), day(7))

	assert.Len(t, selected, 2)
	for _, post := range selected {
		assert.False(t, post.UpdatedAt.Before(day(1)))
		assert.False(t, post.UpdatedAt.After(day(7)))
	}
}

func TestSelectPostsCapsAtFifteen(t *testing.T) {
	posts := []model.Post{}
	for i := 0; i < 40; i++ {
		posts = append(posts, model.Post{
			Id:        fmt.Sprint(i),
			Tag:       "tech",
			UpdatedAt: day(2).Add(time.Duration(i) * time.Minute),
		})
	}
	pref := model.TeamPreference{Tag: "Tech"}

	selected := SelectPosts(pref, posts, day(1), day(7))

	assert.Len(t, selected, MaxPosts)
	// Most recently updated first.
	assert.Equal(t, "39", selected[0].Id)
}

func TestSelectPostsSingleMatchPerPost(t *testing.T) {
	// A post matching several preference tags appears exactly once.
	posts := []model.Post{
		{Id: "1", Tag: "a;b;c", UpdatedAt: day(3)},
	}
	pref := model.TeamPreference{Tag: "a;b;c"}

	selected := SelectPosts(pref, posts, day(1), day(7))

	assert.Len(t, selected, 1)
}

func TestSelectPostsRecencyOrder(t *testing.T) {
	posts := []model.Post{
		{Id: "old", Tag: "a", UpdatedAt: day(2)},
		{Id: "new", Tag: "a", UpdatedAt: day(6)},
		{Id: "mid", Tag: "a", UpdatedAt: day(4)},
	}
	pref := model.TeamPreference{Tag: "a"}

	selected := SelectPosts(pref, posts, day(1), day(7))

	assert.Equal(t, "new", selected[0].Id)
	assert.Equal(t, "mid", selected[1].Id)
	assert.Equal(t, "old", selected[2].Id)
}

func TestSelectPostsSkipsRemovedAndEmptyPreference(t *testing.T) {
	posts := []model.Post{
		{Id: "1", Tag: "a", UpdatedAt: day(3), IsRemoved: true},
	}

	assert.Empty(t, SelectPosts(model.TeamPreference{Tag: "a"}, posts, day(1), day(7)))
	assert.Empty(t, SelectPosts(model.TeamPreference{Tag: ""}, posts, day(1), day(7)))
}
