// Package tagset handles the semicolon separated tag strings stored on
// posts and team preferences. Tags compare case-insensitively but keep
// the casing of their first occurrence for display.
package tagset

import (
	"sort"
	"strings"
)

// Delimiter separates tags at the storage level.
const Delimiter = ";"

// Parse splits a raw semicolon separated tag string into an ordered,
// deduplicated list. Entries are trimmed, empty entries dropped, and
// duplicates collapsed case-insensitively keeping the first casing.
// An empty input yields an empty list, never an error.
func Parse(raw string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, Delimiter) {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		folded := strings.ToLower(tag)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		tags = append(tags, tag)
	}
	return tags
}

// Join serializes a tag list back into its storage form.
func Join(tags []string) string {
	return strings.Join(tags, Delimiter)
}

// Contains reports whether tags holds needle, comparing trimmed and
// case-insensitively.
func Contains(tags []string, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	for _, tag := range tags {
		if strings.ToLower(strings.TrimSpace(tag)) == needle {
			return true
		}
	}
	return false
}

// Intersect returns the tags of a that are also present in b,
// case-insensitively, preserving a's ordering and casing.
func Intersect(a, b []string) []string {
	res := []string{}
	for _, tag := range a {
		if Contains(b, tag) {
			res = append(res, tag)
		}
	}
	return res
}

// TopByFrequency counts tag occurrences across all lists and returns up
// to limit tags ordered by descending frequency, ties broken
// alphabetically. Counting is case-insensitive; the first seen casing of
// each tag is the one returned.
func TopByFrequency(tagLists [][]string, limit int) []string {
	counts := map[string]int{}
	display := map[string]string{}
	for _, tags := range tagLists {
		for _, tag := range tags {
			folded := strings.ToLower(tag)
			if _, ok := display[folded]; !ok {
				display[folded] = tag
			}
			counts[folded]++
		}
	}

	folded := make([]string, 0, len(counts))
	for tag := range counts {
		folded = append(folded, tag)
	}
	sort.Slice(folded, func(i, j int) bool {
		if counts[folded[i]] != counts[folded[j]] {
			return counts[folded[i]] > counts[folded[j]]
		}
		return folded[i] < folded[j]
	})

	if limit >= 0 && len(folded) > limit {
		folded = folded[:limit]
	}

	res := make([]string, 0, len(folded))
	for _, tag := range folded {
		res = append(res, display[tag])
	}
	return res
}

// FilterBySubstring keeps only the tags containing the query as a
// case-insensitive substring. Used by the search-as-you-type tag picker
// before truncation.
func FilterBySubstring(tags []string, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return tags
	}
	res := []string{}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), query) {
			res = append(res, tag)
		}
	}
	return res
}
