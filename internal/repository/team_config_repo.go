package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

type TeamConfigRepository struct {
	db *gorm.DB
}

func NewTeamConfigRepository(db *gorm.DB) *TeamConfigRepository {
	return &TeamConfigRepository{db: db}
}

// FindByTeam returns (nil, nil) when the team has no config yet.
func (r *TeamConfigRepository) FindByTeam(ctx context.Context, teamID uuid.UUID) (*model.TeamConfig, error) {
	var cfg model.TeamConfig
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *TeamConfigRepository) Upsert(ctx context.Context, cfg *model.TeamConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"assistant_id", "assistant_name", "updated_at"}),
	}).Create(cfg).Error
}
