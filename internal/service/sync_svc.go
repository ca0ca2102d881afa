package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

// PushSummary aggregates the per-dataset outcomes of one forward push.
type PushSummary struct {
	Message       string               `json:"message"`
	Groups        []syncer.SyncOutcome `json:"groups"`
	TotalAppended int                  `json:"total_appended"`
	TotalUpdated  int                  `json:"total_updated"`
	TotalSkipped  int                  `json:"total_skipped"`
	TotalCleaned  int                  `json:"total_cleaned"`
}

// ReverseSummary is the result of a reverse sync run plus its user-facing
// message.
type ReverseSummary struct {
	Message string `json:"message"`
	syncer.ReverseSyncResult
}

// SyncService orchestrates the sync engines for the API layer: record
// selection, routing, and summary composition.
type SyncService struct {
	qaRepo   *repository.QARecordRepository
	datasets *TeamDatasetService
	router   *syncer.Router
	reverse  *syncer.Reverse
	logger   *slog.Logger
}

func NewSyncService(qaRepo *repository.QARecordRepository, datasets *TeamDatasetService, router *syncer.Router, reverse *syncer.Reverse) *SyncService {
	return &SyncService{
		qaRepo:   qaRepo,
		datasets: datasets,
		router:   router,
		reverse:  reverse,
		logger:   slog.Default().With("service", "qa_sync"),
	}
}

// PushToEngine forward-syncs the team's eligible records (optionally
// narrowed to ids) into their bound datasets; unbound records go to
// targetDatasetID.
func (s *SyncService) PushToEngine(ctx context.Context, teamID uuid.UUID, targetDatasetID string, ids []uuid.UUID) (*PushSummary, error) {
	qaList, err := s.qaRepo.ListPushable(ctx, teamID, ids)
	if err != nil {
		return nil, fmt.Errorf("load pushable records: %w", err)
	}
	if len(qaList) == 0 {
		return &PushSummary{Message: "no eligible QA records to push"}, nil
	}

	activeQuestions, err := s.qaRepo.ActiveQuestions(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load active questions: %w", err)
	}

	s.logger.Info("forward sync start",
		"team_id", teamID, "pending", len(qaList), "active_total", len(activeQuestions))

	groups, err := s.router.Push(ctx, targetDatasetID, qaList, activeQuestions, teamID)
	if err != nil {
		return nil, err
	}

	summary := &PushSummary{Groups: groups}
	var parts []string
	for _, g := range groups {
		summary.TotalAppended += g.Appended
		summary.TotalUpdated += g.Updated
		summary.TotalSkipped += g.Skipped
		summary.TotalCleaned += g.Cleaned

		var sub []string
		if g.Appended > 0 {
			sub = append(sub, fmt.Sprintf("appended %d", g.Appended))
		}
		if g.Updated > 0 {
			sub = append(sub, fmt.Sprintf("updated %d", g.Updated))
		}
		if len(sub) > 0 {
			parts = append(parts, g.DatasetName+": "+strings.Join(sub, ", "))
		}
	}
	summary.Message = "push completed"
	if len(parts) > 0 {
		summary.Message += ": " + strings.Join(parts, "; ")
	}
	return summary, nil
}

// PullFromEngine reverse-syncs one dataset, or every dataset bound to the
// team when datasetID is empty.
func (s *SyncService) PullFromEngine(ctx context.Context, teamID, actorID uuid.UUID, datasetID string) (*ReverseSummary, error) {
	var datasetIDs []string
	if datasetID != "" {
		datasetIDs = []string{datasetID}
	} else {
		var err error
		datasetIDs, err = s.datasets.DatasetIDs(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("resolve team datasets: %w", err)
		}
	}
	if len(datasetIDs) == 0 {
		return nil, ErrNoDatasets
	}

	total := s.reverse.SyncAll(ctx, datasetIDs, teamID, actorID)

	parts := []string{fmt.Sprintf("reverse sync finished across %d datasets", len(datasetIDs))}
	if total.Imported > 0 {
		parts = append(parts, fmt.Sprintf("imported %d", total.Imported))
	}
	if total.Updated > 0 {
		parts = append(parts, fmt.Sprintf("updated %d", total.Updated))
	}
	if total.Deleted > 0 {
		parts = append(parts, fmt.Sprintf("deleted %d", total.Deleted))
	}
	if total.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("skipped %d", total.Skipped))
	}
	if total.ParseFailed > 0 {
		parts = append(parts, fmt.Sprintf("%d chunks unparsable", total.ParseFailed))
	}
	if total.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", total.Errors))
	}

	return &ReverseSummary{
		Message:           strings.Join(parts, ", "),
		ReverseSyncResult: total,
	}, nil
}
