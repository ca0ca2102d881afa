package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

type TransferResult struct {
	QARecordID uuid.UUID `json:"qa_record_id"`
	TicketID   uuid.UUID `json:"ticket_id"`
}

// TransferService routes a low-confidence chat answer into the human-review
// workflow: one pending_review QA record plus one ticket per chat message,
// idempotent on the message id.
type TransferService struct {
	qaRepo     *repository.QARecordRepository
	ticketRepo *repository.TicketRepository
	detector   *syncer.Detector
	logger     *slog.Logger
}

func NewTransferService(qaRepo *repository.QARecordRepository, ticketRepo *repository.TicketRepository, detector *syncer.Detector) *TransferService {
	return &TransferService{
		qaRepo:     qaRepo,
		ticketRepo: ticketRepo,
		detector:   detector,
		logger:     slog.Default().With("service", "transfer"),
	}
}

func (s *TransferService) Transfer(ctx context.Context, teamID, userID uuid.UUID, messageID, question, answer string) (*TransferResult, error) {
	existing, err := s.qaRepo.FindBySourceMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("idempotence check: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyTransferred
	}

	dup, err := s.detector.Check(ctx, question, teamID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup != nil {
		return nil, &DuplicateError{Result: *dup}
	}

	qa := &model.QARecord{
		TeamID:          teamID,
		Question:        question,
		Answer:          answer,
		QuestionSummary: model.Summarize(question),
		AnswerSummary:   model.Summarize(answer),
		Status:          model.QAStatusPendingReview,
		Source:          model.QASourceTransfer,
		SourceMessageID: messageID,
		EditedBy:        userID,
	}
	if err := s.qaRepo.Create(ctx, qa); err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		TeamID:     teamID,
		QARecordID: qa.ID,
		MessageID:  messageID,
		Status:     model.TicketStatusPending,
		CreatedBy:  userID,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("message transferred to human review",
		"message_id", messageID, "qa_record_id", qa.ID, "ticket_id", ticket.ID)
	return &TransferResult{QARecordID: qa.ID, TicketID: ticket.ID}, nil
}
