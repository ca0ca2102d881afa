package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

// QAService owns the QARecord lifecycle: creation guarded by duplicate
// detection, edits with modification bookkeeping for the sync engines, and
// bulk import.
type QAService struct {
	repo     *repository.QARecordRepository
	detector *syncer.Detector
	logger   *slog.Logger
}

func NewQAService(repo *repository.QARecordRepository, detector *syncer.Detector) *QAService {
	return &QAService{
		repo:     repo,
		detector: detector,
		logger:   slog.Default().With("service", "qa"),
	}
}

func (s *QAService) List(ctx context.Context, teamID uuid.UUID, opts repository.ListOptions) ([]model.QARecord, int64, error) {
	return s.repo.List(ctx, teamID, opts)
}

func (s *QAService) Get(ctx context.Context, id uuid.UUID) (*model.QARecord, error) {
	qa, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return qa, err
}

// Create admits a new manually authored record after the two-level
// duplicate check. A detected duplicate comes back as *DuplicateError.
func (s *QAService) Create(ctx context.Context, teamID, editorID uuid.UUID, question, answer string) (*model.QARecord, error) {
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
		Status:          model.QAStatusActive,
		Source:          model.QASourceManual,
		EditedBy:        editorID,
	}
	if err := s.repo.Create(ctx, qa); err != nil {
		return nil, err
	}
	return qa, nil
}

// Update applies a content edit. The version always bumps; the question's
// previous value is kept only when the question text actually changed, so
// forward sync can find the stale remote chunk under it.
func (s *QAService) Update(ctx context.Context, id, editorID uuid.UUID, question, answer *string) (*model.QARecord, error) {
	qa, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if question != nil && *question != qa.Question {
		qa.PreviousQuestion = qa.Question
	}
	if question != nil || answer != nil {
		qa.IsModified = true
	}

	if question != nil {
		qa.Question = *question
		qa.QuestionSummary = model.Summarize(*question)
	}
	if answer != nil {
		qa.Answer = *answer
		qa.AnswerSummary = model.Summarize(*answer)
	}
	qa.Version++
	qa.EditedBy = editorID

	if err := s.repo.Update(ctx, qa); err != nil {
		return nil, err
	}
	return qa, nil
}

func (s *QAService) ChangeStatus(ctx context.Context, id, editorID uuid.UUID, status model.QAStatus) error {
	qa, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	qa.Status = status
	qa.EditedBy = editorID
	return s.repo.Update(ctx, qa)
}

func (s *QAService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Import inserts rows parsed from an uploaded file, running the duplicate
// check per row and skipping hits instead of failing the batch. Returns
// (inserted, skipped).
func (s *QAService) Import(ctx context.Context, teamID, editorID uuid.UUID, rows [][2]string) (int, int, error) {
	count := 0
	skipped := 0
	for _, row := range rows {
		question, answer := row[0], row[1]
		dup, err := s.detector.Check(ctx, question, teamID, uuid.Nil)
		if err != nil {
			return count, skipped, fmt.Errorf("duplicate check: %w", err)
		}
		if dup != nil {
			skipped++
			s.logger.Info("import skipped duplicate",
				"question", model.Summarize(question), "match_type", dup.MatchType)
			continue
		}

		qa := &model.QARecord{
			TeamID:          teamID,
			Question:        question,
			Answer:          answer,
			QuestionSummary: model.Summarize(question),
			AnswerSummary:   model.Summarize(answer),
			Status:          model.QAStatusActive,
			Source:          model.QASourceImport,
			EditedBy:        editorID,
		}
		if err := s.repo.Create(ctx, qa); err != nil {
			return count, skipped, err
		}
		count++
	}
	return count, skipped, nil
}
