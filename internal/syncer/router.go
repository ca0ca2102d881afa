package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

// Router groups a push batch by each record's dataset binding and runs the
// forward engine once per group. Records with no binding fold into the
// caller-supplied target dataset. After a group's push succeeds, every
// record in it is re-bound to that dataset with its modification markers
// cleared; a failed group becomes an error outcome and the remaining
// groups still run.
type Router struct {
	forward  *Forward
	store    QAStore
	datasets DatasetSource
	logger   *slog.Logger
}

func NewRouter(forward *Forward, store QAStore, datasets DatasetSource) *Router {
	return &Router{
		forward:  forward,
		store:    store,
		datasets: datasets,
		logger:   slog.Default().With("component", "push_router"),
	}
}

func (r *Router) Push(ctx context.Context, targetDatasetID string, qaList []model.QARecord, activeQuestions map[string]struct{}, teamID uuid.UUID) ([]SyncOutcome, error) {
	// Group by dataset binding, keeping first-seen order.
	groups := make(map[string][]model.QARecord)
	var order []string
	var unassigned []model.QARecord
	for _, qa := range qaList {
		if qa.DatasetID == "" {
			unassigned = append(unassigned, qa)
			continue
		}
		if _, ok := groups[qa.DatasetID]; !ok {
			order = append(order, qa.DatasetID)
		}
		groups[qa.DatasetID] = append(groups[qa.DatasetID], qa)
	}

	if len(unassigned) > 0 {
		if targetDatasetID == "" {
			return nil, &TargetRequiredError{Unassigned: len(unassigned)}
		}
		if _, ok := groups[targetDatasetID]; !ok {
			order = append(order, targetDatasetID)
		}
		groups[targetDatasetID] = append(groups[targetDatasetID], unassigned...)
	}

	names, err := r.datasets.NamesByID(ctx, order)
	if err != nil {
		r.logger.Warn("dataset name lookup failed", "error", err)
		names = map[string]string{}
	}

	var results []SyncOutcome
	for _, dsID := range order {
		groupQAs := groups[dsID]
		name := names[dsID]
		if name == "" {
			name = dsID
		}

		outcome, err := r.forward.SyncDataset(ctx, dsID, groupQAs, activeQuestions)
		if err != nil {
			r.logger.Error("group push failed", "dataset", name, "error", err)
			results = append(results, SyncOutcome{
				DatasetID:   dsID,
				DatasetName: name,
				Strategy:    "error",
				Message:     fmt.Sprintf("push failed: %v", err),
			})
			continue
		}
		outcome.DatasetID = dsID
		outcome.DatasetName = name

		// Write-backs happen only after the group's remote push succeeded,
		// so a record is never marked synced against a failed push.
		for i := range groupQAs {
			qa := groupQAs[i]
			qa.DatasetID = dsID
			qa.IsModified = false
			qa.PreviousQuestion = ""
			if err := r.store.Update(ctx, &qa); err != nil {
				return results, fmt.Errorf("write back record %s: %w", qa.ID, err)
			}
		}

		results = append(results, outcome)
		r.logger.Info("group push completed", "dataset", name)
	}
	return results, nil
}
