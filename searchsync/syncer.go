package searchsync

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/curately/goodreads/store"
	Logger "github.com/curately/goodreads/utils/log"
)

// DefaultSyncInterval is how often the purge-and-rebuild pass runs.
const DefaultSyncInterval = 12 * time.Hour

// Syncer periodically hard deletes soft removed posts and rebuilds the
// index snapshot from the store. Safe to run alongside read traffic:
// deletions only touch rows that are already hidden from every read.
type Syncer struct {
	posts    store.PostStore
	index    *Index
	interval time.Duration
}

func NewSyncer(posts store.PostStore, index *Index, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Syncer{posts: posts, index: index, interval: interval}
}

func (s *Syncer) Name() string { return "search_index_sync" }

func (s *Syncer) Shutdown() {}

// RunModule rebuilds once at startup, then on the fixed interval until
// cancelled. A failed pass is logged and retried on the next tick.
func (s *Syncer) RunModule(ctx context.Context) error {
	if err := s.SyncOnce(ctx); err != nil {
		Logger.Log.Errorf("initial index sync failed: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.SyncOnce(ctx); err != nil {
				Logger.Log.Errorf("index sync failed: %v", err)
			}
		}
	}
}

// SyncOnce purges removed posts then rebuilds the snapshot.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	removed, err := s.posts.ListRemovedIds(ctx)
	if err != nil {
		return errors.Wrap(err, "fail to list removed posts")
	}
	if len(removed) > 0 {
		if err := s.posts.DeleteByIds(ctx, removed); err != nil {
			return errors.Wrap(err, "fail to purge removed posts")
		}
		Logger.Log.Infof("purged %d removed posts", len(removed))
	}

	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return errors.Wrap(err, "fail to load posts for index rebuild")
	}
	s.index.Rebuild(posts)
	return nil
}
