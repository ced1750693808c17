// Package votes implements the vote ledger: one vote per (user, post)
// pair, with the post's denormalized counter kept in step through a
// bounded optimistic-concurrency retry loop and compensating rollback.
package votes

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/curately/goodreads/model"
	"github.com/curately/goodreads/store"
	Logger "github.com/curately/goodreads/utils/log"
)

const (
	// Counter update retry budget. Matches the delivery contract of the
	// ledger: a precondition conflict is retried up to defaultAttempts
	// times with a fixed linear backoff in between.
	defaultAttempts = 3
	defaultBackoff  = time.Second
)

// ErrCounterConflict is returned when the counter update still conflicts
// after the retry budget is exhausted.
var ErrCounterConflict = errors.New("votes: counter update conflicted after retries")

// ErrPostNotFound is returned when the voted post does not exist.
var ErrPostNotFound = errors.New("votes: post not found")

// IndexRefresher requests an incremental search index refresh for one
// post after its vote count changed.
type IndexRefresher interface {
	RequestRefresh(ctx context.Context, postId string) error
}

// Ledger coordinates the vote table and the post counter.
type Ledger struct {
	posts     store.PostStore
	votes     store.VoteStore
	refresher IndexRefresher

	attempts int
	backoff  time.Duration
	sleep    func(time.Duration)
}

// NewLedger returns a Ledger with the default retry budget.
func NewLedger(posts store.PostStore, votes store.VoteStore, refresher IndexRefresher) *Ledger {
	return &Ledger{
		posts:     posts,
		votes:     votes,
		refresher: refresher,
		attempts:  defaultAttempts,
		backoff:   defaultBackoff,
		sleep:     time.Sleep,
	}
}

// AddVote records userId's vote on postId. Returns false with a nil
// error when the user already voted (a no-op, not a failure). On success
// the post counter has been incremented exactly once and a Vote row
// exists.
func (l *Ledger) AddVote(ctx context.Context, userId, postId string) (bool, error) {
	existing, err := l.votes.Get(ctx, userId, postId)
	if err != nil {
		return false, errors.Wrap(err, "fail to check existing vote")
	}
	if existing != nil {
		return false, nil
	}

	if err := l.adjustCounter(ctx, postId, 1); err != nil {
		return false, err
	}

	if err := l.votes.Create(ctx, &model.Vote{UserID: userId, PostID: postId}); err != nil {
		// The counter increment already landed, roll it back so no counter
		// mutation without its vote row stays committed.
		if cerr := l.adjustCounter(ctx, postId, -1); cerr != nil {
			Logger.Log.Errorf("fail to compensate vote counter for post %s: %v", postId, cerr)
		}
		return false, errors.Wrap(err, "fail to write vote record")
	}

	l.requestRefresh(ctx, postId)
	return true, nil
}

// RemoveVote deletes userId's vote on postId. Returns false with a nil
// error when no vote exists.
func (l *Ledger) RemoveVote(ctx context.Context, userId, postId string) (bool, error) {
	existing, err := l.votes.Get(ctx, userId, postId)
	if err != nil {
		return false, errors.Wrap(err, "fail to check existing vote")
	}
	if existing == nil {
		return false, nil
	}

	if err := l.adjustCounter(ctx, postId, -1); err != nil {
		return false, err
	}

	if err := l.votes.Delete(ctx, userId, postId); err != nil {
		if cerr := l.adjustCounter(ctx, postId, 1); cerr != nil {
			Logger.Log.Errorf("fail to compensate vote counter for post %s: %v", postId, cerr)
		}
		return false, errors.Wrap(err, "fail to delete vote record")
	}

	l.requestRefresh(ctx, postId)
	return true, nil
}

// adjustCounter runs the read-modify-write loop over the post counter.
// Only a precondition failure is retried; any other store error aborts
// immediately to avoid double counting.
func (l *Ledger) adjustCounter(ctx context.Context, postId string, delta int) error {
	for attempt := 0; attempt < l.attempts; attempt++ {
		if attempt > 0 {
			l.sleep(l.backoff)
		}

		post, err := l.posts.Get(ctx, postId)
		if err != nil {
			return errors.Wrap(err, "fail to read post for counter update")
		}
		if post == nil {
			return ErrPostNotFound
		}

		if delta < 0 && post.TotalVotes == 0 {
			// Counter already at zero, nothing to decrement. Can happen when
			// a compensation races a concurrent remove.
			return nil
		}
		post.TotalVotes = uint(int(post.TotalVotes) + delta)

		err = l.posts.UpdateVotesIfUnchanged(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrPreconditionFailed) {
			return errors.Wrap(err, "fail to update post counter")
		}
		Logger.Log.Infof("vote counter conflict on post %s, attempt %d", postId, attempt+1)
	}
	return ErrCounterConflict
}

func (l *Ledger) requestRefresh(ctx context.Context, postId string) {
	if l.refresher == nil {
		return
	}
	if err := l.refresher.RequestRefresh(ctx, postId); err != nil {
		// Index refresh is best effort, the periodic sync will converge.
		Logger.Log.Errorf("fail to request index refresh for post %s: %v", postId, err)
	}
}
