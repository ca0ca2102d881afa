package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

type TeamDatasetRepository struct {
	db *gorm.DB
}

func NewTeamDatasetRepository(db *gorm.DB) *TeamDatasetRepository {
	return &TeamDatasetRepository{db: db}
}

func (r *TeamDatasetRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamDataset, error) {
	var bindings []model.TeamDataset
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&bindings).Error
	return bindings, err
}

func (r *TeamDatasetRepository) DatasetIDs(ctx context.Context, teamID uuid.UUID) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.TeamDataset{}).
		Where("team_id = ?", teamID).
		Pluck("dataset_id", &ids).Error
	return ids, err
}

func (r *TeamDatasetRepository) NamesByID(ctx context.Context, datasetIDs []string) (map[string]string, error) {
	names := make(map[string]string)
	if len(datasetIDs) == 0 {
		return names, nil
	}

	var bindings []model.TeamDataset
	err := r.db.WithContext(ctx).
		Where("dataset_id IN ?", datasetIDs).
		Find(&bindings).Error
	if err != nil {
		return nil, err
	}
	for _, b := range bindings {
		names[b.DatasetID] = b.DatasetName
	}
	return names, nil
}

func (r *TeamDatasetRepository) Bind(ctx context.Context, binding *model.TeamDataset) error {
	return r.db.WithContext(ctx).Create(binding).Error
}

func (r *TeamDatasetRepository) Unbind(ctx context.Context, teamID uuid.UUID, datasetID string) error {
	return r.db.WithContext(ctx).
		Where("team_id = ? AND dataset_id = ?", teamID, datasetID).
		Delete(&model.TeamDataset{}).Error
}

// UpdateCounts refreshes the cached document/chunk counters shown in the
// dataset list.
func (r *TeamDatasetRepository) UpdateCounts(ctx context.Context, teamID uuid.UUID, datasetID string, documents, chunks int) error {
	return r.db.WithContext(ctx).Model(&model.TeamDataset{}).
		Where("team_id = ? AND dataset_id = ?", teamID, datasetID).
		Updates(map[string]any{"document_count": documents, "chunk_count": chunks}).Error
}
