package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curately/goodreads/model"
)

type gormChannelStore struct {
	db *gorm.DB
}

// NewTeamChannelStore returns a postgres backed TeamChannelStore.
func NewTeamChannelStore(db *gorm.DB) TeamChannelStore {
	return &gormChannelStore{db: db}
}

func (s *gormChannelStore) Get(ctx context.Context, teamId string) (*model.TeamChannel, error) {
	var channel model.TeamChannel
	res := s.db.WithContext(ctx).Where("team_id = ?", teamId).First(&channel)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(res.Error, "fail to get team channel")
	}
	return &channel, nil
}

func (s *gormChannelStore) Upsert(ctx context.Context, channel *model.TeamChannel) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "conversation_id", "service_url", "updated_at",
		}),
	}).Create(channel)
	return errors.Wrap(res.Error, "fail to upsert team channel")
}

func (s *gormChannelStore) Delete(ctx context.Context, teamId string) error {
	res := s.db.WithContext(ctx).
		Where("team_id = ?", teamId).Delete(&model.TeamChannel{})
	return errors.Wrap(res.Error, "fail to delete team channel")
}
