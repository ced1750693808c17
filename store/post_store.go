package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curately/goodreads/model"
)

type gormPostStore struct {
	db *gorm.DB
}

// NewPostStore returns a postgres backed PostStore.
func NewPostStore(db *gorm.DB) PostStore {
	return &gormPostStore{db: db}
}

func (s *gormPostStore) Get(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	res := s.db.WithContext(ctx).Where("id = ?", id).First(&post)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(res.Error, "fail to get post")
	}
	return &post, nil
}

func (s *gormPostStore) Upsert(ctx context.Context, post *model.Post) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "title", "description", "content_url", "tag",
			"is_removed", "updated_at",
		}),
	}).Create(post)
	return errors.Wrap(res.Error, "fail to upsert post")
}

func (s *gormPostStore) UpdateVotesIfUnchanged(ctx context.Context, post *model.Post) error {
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND version = ?", post.Id, post.Version).
		Updates(map[string]interface{}{
			"total_votes": post.TotalVotes,
			"version":     post.Version + 1,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to update post votes")
	}
	if res.RowsAffected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func (s *gormPostStore) ListAll(ctx context.Context) ([]model.Post, error) {
	var posts []model.Post
	res := s.db.WithContext(ctx).Where("is_removed = false").Find(&posts)
	return posts, errors.Wrap(res.Error, "fail to list posts")
}

func (s *gormPostStore) ListUpdatedBetween(ctx context.Context, from, to time.Time) ([]model.Post, error) {
	var posts []model.Post
	res := s.db.WithContext(ctx).
		Where("is_removed = false AND updated_at >= ? AND updated_at <= ?", from, to).
		Find(&posts)
	return posts, errors.Wrap(res.Error, "fail to list posts in window")
}

func (s *gormPostStore) ListRemovedIds(ctx context.Context) ([]string, error) {
	var ids []string
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("is_removed = true").Pluck("id", &ids)
	return ids, errors.Wrap(res.Error, "fail to list removed post ids")
}

func (s *gormPostStore) DeleteByIds(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Post{})
	return errors.Wrap(res.Error, "fail to hard delete posts")
}
