package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curately/goodreads/model"
)

type gormPreferenceStore struct {
	db *gorm.DB
}

// NewTeamPreferenceStore returns a postgres backed TeamPreferenceStore.
func NewTeamPreferenceStore(db *gorm.DB) TeamPreferenceStore {
	return &gormPreferenceStore{db: db}
}

func (s *gormPreferenceStore) Get(ctx context.Context, teamId string) (*model.TeamPreference, error) {
	var pref model.TeamPreference
	res := s.db.WithContext(ctx).Where("team_id = ?", teamId).First(&pref)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(res.Error, "fail to get team preference")
	}
	return &pref, nil
}

func (s *gormPreferenceStore) Upsert(ctx context.Context, pref *model.TeamPreference) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tag", "digest_frequency", "updated_by", "updated_at",
		}),
	}).Create(pref)
	return errors.Wrap(res.Error, "fail to upsert team preference")
}

func (s *gormPreferenceStore) Delete(ctx context.Context, teamId string) error {
	res := s.db.WithContext(ctx).
		Where("team_id = ?", teamId).Delete(&model.TeamPreference{})
	return errors.Wrap(res.Error, "fail to delete team preference")
}

func (s *gormPreferenceStore) ListByFrequency(ctx context.Context, freq model.DigestFrequency) ([]model.TeamPreference, error) {
	var prefs []model.TeamPreference
	res := s.db.WithContext(ctx).Where("digest_frequency = ?", freq).Find(&prefs)
	return prefs, errors.Wrap(res.Error, "fail to list team preferences")
}
