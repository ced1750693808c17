package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curately/goodreads/model"
)

type gormBookmarkStore struct {
	db *gorm.DB
}

// NewBookmarkStore returns a postgres backed BookmarkStore.
func NewBookmarkStore(db *gorm.DB) BookmarkStore {
	return &gormBookmarkStore{db: db}
}

func (s *gormBookmarkStore) Add(ctx context.Context, userId, postId string) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserPostSave{
			UserID:    userId,
			PostID:    postId,
			CreatedAt: time.Now(),
		})
	return errors.Wrap(res.Error, "fail to save post")
}

func (s *gormBookmarkStore) Remove(ctx context.Context, userId, postId string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userId, postId).
		Delete(&model.UserPostSave{})
	return errors.Wrap(res.Error, "fail to unsave post")
}

func (s *gormBookmarkStore) ListRecentPosts(ctx context.Context, userId string, limit int) ([]model.Post, error) {
	// Soft deleted posts intentionally stay visible in the private list
	// until the purge job drops their rows, at which point the join stops
	// resolving them.
	var posts []model.Post
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Joins("INNER JOIN user_post_saves ON user_post_saves.post_id = posts.id").
		Where("user_post_saves.user_id = ?", userId).
		Order("user_post_saves.created_at DESC").
		Limit(limit).
		Find(&posts)
	return posts, errors.Wrap(res.Error, "fail to list saved posts")
}
