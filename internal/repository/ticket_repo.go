package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *TicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) ListByTeam(ctx context.Context, teamID uuid.UUID, status string, limit, offset int) ([]model.Ticket, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Ticket{}).Where("team_id = ?", teamID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []model.Ticket
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error
	return tickets, total, err
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TicketStatus, assigneeID uuid.UUID) error {
	updates := map[string]any{"status": status}
	if assigneeID != uuid.Nil {
		updates["assignee_id"] = assigneeID
	}
	return r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id = ?", id).Updates(updates).Error
}
