// Package store wraps the gorm backed tables behind small interfaces so
// the vote ledger, digest pipeline and index sync can be tested against
// in-memory fakes.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/curately/goodreads/model"
)

// ErrPreconditionFailed is returned by conditional updates when the
// stored row version no longer matches the version that was read. It is
// the retry signal for the vote ledger's read-modify-write loop; every
// other error must be treated as non-retryable.
var ErrPreconditionFailed = errors.New("store: precondition failed")

// PostStore is the post table contract.
type PostStore interface {
	Get(ctx context.Context, id string) (*model.Post, error)
	Upsert(ctx context.Context, post *model.Post) error
	// UpdateVotesIfUnchanged persists post's TotalVotes guarded by the
	// Version the post was read at. Returns ErrPreconditionFailed when a
	// concurrent writer got there first.
	UpdateVotesIfUnchanged(ctx context.Context, post *model.Post) error
	ListAll(ctx context.Context) ([]model.Post, error)
	ListUpdatedBetween(ctx context.Context, from, to time.Time) ([]model.Post, error)
	ListRemovedIds(ctx context.Context) ([]string, error)
	DeleteByIds(ctx context.Context, ids []string) error
}

// VoteStore is the vote table contract.
type VoteStore interface {
	Get(ctx context.Context, userId, postId string) (*model.Vote, error)
	Create(ctx context.Context, vote *model.Vote) error
	Delete(ctx context.Context, userId, postId string) error
	ListByUser(ctx context.Context, userId string) ([]model.Vote, error)
}

// TeamPreferenceStore is the team digest preference contract.
type TeamPreferenceStore interface {
	Get(ctx context.Context, teamId string) (*model.TeamPreference, error)
	Upsert(ctx context.Context, pref *model.TeamPreference) error
	Delete(ctx context.Context, teamId string) error
	ListByFrequency(ctx context.Context, freq model.DigestFrequency) ([]model.TeamPreference, error)
}

// TeamChannelStore tracks where each team's digest card is delivered.
type TeamChannelStore interface {
	Get(ctx context.Context, teamId string) (*model.TeamChannel, error)
	Upsert(ctx context.Context, channel *model.TeamChannel) error
	Delete(ctx context.Context, teamId string) error
}

// BookmarkStore is the private saved-post list contract.
type BookmarkStore interface {
	Add(ctx context.Context, userId, postId string) error
	Remove(ctx context.Context, userId, postId string) error
	// ListRecentPosts resolves the user's most recently saved posts, capped
	// at limit. Soft deleted posts are still included until purged.
	ListRecentPosts(ctx context.Context, userId string, limit int) ([]model.Post, error)
}
