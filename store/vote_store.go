package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/curately/goodreads/model"
)

type gormVoteStore struct {
	db *gorm.DB
}

// NewVoteStore returns a postgres backed VoteStore.
func NewVoteStore(db *gorm.DB) VoteStore {
	return &gormVoteStore{db: db}
}

func (s *gormVoteStore) Get(ctx context.Context, userId, postId string) (*model.Vote, error) {
	var vote model.Vote
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userId, postId).First(&vote)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(res.Error, "fail to get vote")
	}
	return &vote, nil
}

func (s *gormVoteStore) Create(ctx context.Context, vote *model.Vote) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}
	res := s.db.WithContext(ctx).Create(vote)
	return errors.Wrap(res.Error, "fail to create vote")
}

func (s *gormVoteStore) Delete(ctx context.Context, userId, postId string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userId, postId).Delete(&model.Vote{})
	return errors.Wrap(res.Error, "fail to delete vote")
}

func (s *gormVoteStore) ListByUser(ctx context.Context, userId string) ([]model.Vote, error) {
	var votes []model.Vote
	res := s.db.WithContext(ctx).Where("user_id = ?", userId).Find(&votes)
	return votes, errors.Wrap(res.Error, "fail to list votes by user")
}
