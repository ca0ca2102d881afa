package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

// DatasetFilterNone is the sentinel the list API uses to filter records
// with no dataset binding.
const DatasetFilterNone = "__none__"

type QARecordRepository struct {
	db *gorm.DB
}

func NewQARecordRepository(db *gorm.DB) *QARecordRepository {
	return &QARecordRepository{db: db}
}

func (r *QARecordRepository) Create(ctx context.Context, qa *model.QARecord) error {
	return r.db.WithContext(ctx).Create(qa).Error
}

func (r *QARecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.QARecord, error) {
	var qa model.QARecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&qa).Error
	if err != nil {
		return nil, err
	}
	return &qa, nil
}

// FindByQuestion looks up a record with identical question text within the
// team. excludeID skips one record (used on edit); pass uuid.Nil to match
// all. Returns (nil, nil) when no record matches.
func (r *QARecordRepository) FindByQuestion(ctx context.Context, teamID uuid.UUID, question string, excludeID uuid.UUID) (*model.QARecord, error) {
	query := r.db.WithContext(ctx).
		Where("team_id = ? AND question = ?", teamID, question)
	if excludeID != uuid.Nil {
		query = query.Where("id != ?", excludeID)
	}

	var qa model.QARecord
	err := query.First(&qa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qa, nil
}

// FindBySourceMessage returns the transfer-sourced record created from the
// given chat message, or (nil, nil). Used for transfer idempotence.
func (r *QARecordRepository) FindBySourceMessage(ctx context.Context, messageID string) (*model.QARecord, error) {
	var qa model.QARecord
	err := r.db.WithContext(ctx).
		Where("source_message_id = ? AND source = ?", messageID, model.QASourceTransfer).
		First(&qa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qa, nil
}

func (r *QARecordRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.QARecord, error) {
	var qas []model.QARecord
	err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Find(&qas).Error
	return qas, err
}

type ListOptions struct {
	Keyword   string
	DatasetID string // DatasetFilterNone selects unbound records
	Status    string
	Source    string
	Limit     int
	Offset    int
}

func (r *QARecordRepository) List(ctx context.Context, teamID uuid.UUID, opts ListOptions) ([]model.QARecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.QARecord{}).Where("team_id = ?", teamID)

	if opts.Keyword != "" {
		like := "%" + opts.Keyword + "%"
		query = query.Where("question LIKE ? OR answer LIKE ?", like, like)
	}
	if opts.DatasetID != "" {
		if opts.DatasetID == DatasetFilterNone {
			query = query.Where("dataset_id = ''")
		} else {
			query = query.Where("dataset_id = ?", opts.DatasetID)
		}
	}
	if opts.Status != "" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Source != "" {
		query = query.Where("source = ?", opts.Source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var qas []model.QARecord
	err := query.Order("created_at DESC").Limit(opts.Limit).Offset(opts.Offset).Find(&qas).Error
	return qas, total, err
}

// ListPushable returns the team's records eligible for a forward push:
// active, and either not engine-sourced or explicitly modified since sync.
// ids narrows the selection; nil means all eligible records.
func (r *QARecordRepository) ListPushable(ctx context.Context, teamID uuid.UUID, ids []uuid.UUID) ([]model.QARecord, error) {
	query := r.db.WithContext(ctx).
		Where("team_id = ? AND status = ?", teamID, model.QAStatusActive).
		Where("source != ? OR is_modified = ?", model.QASourceEngineSync, true)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	var qas []model.QARecord
	err := query.Order("created_at ASC").Find(&qas).Error
	return qas, err
}

// ActiveQuestions returns the set of every active question text in the
// team, all sources included. Drives the forward-sync cleanup pass.
func (r *QARecordRepository) ActiveQuestions(ctx context.Context, teamID uuid.UUID) (map[string]struct{}, error) {
	var questions []string
	err := r.db.WithContext(ctx).Model(&model.QARecord{}).
		Where("team_id = ? AND status = ?", teamID, model.QAStatusActive).
		Pluck("question", &questions).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		set[q] = struct{}{}
	}
	return set, nil
}

func (r *QARecordRepository) Update(ctx context.Context, qa *model.QARecord) error {
	return r.db.WithContext(ctx).Save(qa).Error
}

func (r *QARecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.QARecord{}).Error
}
