package tagset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeduplicatesCaseInsensitively(t *testing.T) {
	tags := Parse("Books; TECH ;books")

	assert.Equal(t, []string{"Books", "TECH"}, tags)
}

func TestParseDropsEmptyEntries(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Parse(";a;;  ;b;"))
	assert.Equal(t, []string{}, Parse(""))
	assert.Equal(t, []string{}, Parse(" ; ; "))
}

func TestJoinRoundTrip(t *testing.T) {
	assert.Equal(t, "Books;TECH", Join(Parse("Books; TECH ;books")))
}

func TestContains(t *testing.T) {
	tags := []string{"Books", "TECH"}

	assert.True(t, Contains(tags, "books"))
	assert.True(t, Contains(tags, " tech "))
	assert.False(t, Contains(tags, "golang"))
	assert.False(t, Contains(nil, "books"))
}

func TestIntersectIsSymmetric(t *testing.T) {
	a := Parse("Books;Tech;golang")
	b := Parse("TECH;cloud;BOOKS")

	left := Intersect(a, b)
	right := Intersect(b, a)

	assert.Equal(t, []string{"Books", "Tech"}, left)
	assert.Equal(t, []string{"TECH", "BOOKS"}, right)
	// Same set case-insensitively, regardless of argument order.
	assert.Equal(t, len(left), len(right))
	for i := range left {
		assert.True(t, Contains(right, left[i]))
	}
}

func TestIntersectWithEmpty(t *testing.T) {
	assert.Equal(t, []string{}, Intersect(nil, []string{"a"}))
	assert.Equal(t, []string{}, Intersect([]string{"a"}, nil))
}

func TestTopByFrequency(t *testing.T) {
	lists := [][]string{
		Parse("Tech;Books"),
		Parse("tech;Cloud"),
		Parse("TECH;books;ai"),
	}

	top := TopByFrequency(lists, 50)

	// tech appears 3 times, books twice, ai/cloud once with the tie broken
	// alphabetically.
	assert.Equal(t, []string{"Tech", "Books", "ai", "Cloud"}, top)
}

func TestTopByFrequencyRespectsLimit(t *testing.T) {
	lists := [][]string{Parse("a;b;c;d;e")}

	assert.Len(t, TopByFrequency(lists, 3), 3)
	assert.Equal(t, []string{}, TopByFrequency(nil, 10))
}

func TestFilterBySubstring(t *testing.T) {
	tags := []string{"golang", "Google Cloud", "rust"}

	assert.Equal(t, []string{"golang", "Google Cloud"}, FilterBySubstring(tags, "go"))
	assert.Equal(t, tags, FilterBySubstring(tags, ""))
}
