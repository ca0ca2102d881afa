package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

// Reverse pulls QA content out of a remote dataset's QA documents and
// reconciles it into the local store as an insert/update/delete diff. The
// remote side is authoritative on answer conflicts.
type Reverse struct {
	gw     Gateway
	store  QAStore
	logger *slog.Logger
}

func NewReverse(gw Gateway, store QAStore) *Reverse {
	return &Reverse{
		gw:     gw,
		store:  store,
		logger: slog.Default().With("component", "reverse_sync"),
	}
}

// SyncDataset reconciles one dataset into the team's local records.
// Unexpected errors propagate; per-document chunk failures only bump the
// error count.
func (r *Reverse) SyncDataset(ctx context.Context, datasetID string, teamID, actorID uuid.UUID) (ReverseSyncResult, error) {
	var res ReverseSyncResult

	// 1. Build the remote question→answer map from QA documents; the last
	// chunk wins when a question repeats.
	docs, err := r.gw.ListQADocuments(ctx, datasetID)
	if err != nil {
		return res, fmt.Errorf("list QA documents: %w", err)
	}
	r.logger.Info("reverse sync start", "dataset_id", datasetID, "qa_documents", len(docs))

	remote := make(map[string]string)
	for _, doc := range docs {
		chunks, err := r.gw.ListAllChunks(ctx, datasetID, doc.ID)
		if err != nil {
			r.logger.Warn("document chunk listing failed", "document", doc.Name, "error", err)
			res.Errors++
			continue
		}
		for _, chunk := range chunks {
			q, a := ExtractQA(chunk)
			if q == "" || a == "" {
				res.ParseFailed++
				continue
			}
			remote[q] = a
		}
	}
	r.logger.Info("remote QA map built", "dataset_id", datasetID, "questions", len(remote))

	// 2. Load every local record for the team, all sources and statuses, so
	// question-text collisions are detected regardless of origin.
	locals, err := r.store.ListByTeam(ctx, teamID)
	if err != nil {
		return res, fmt.Errorf("load team records: %w", err)
	}
	byQuestion := make(map[string]*model.QARecord, len(locals))
	for i := range locals {
		byQuestion[locals[i].Question] = &locals[i]
	}

	// 3. Inserts and updates.
	for question, answer := range remote {
		local, ok := byQuestion[question]
		if ok {
			if local.Answer == answer {
				res.Skipped++
				continue
			}
			local.Answer = answer
			local.AnswerSummary = model.Summarize(answer)
			local.Version++
			local.EditedBy = actorID
			if err := r.store.Update(ctx, local); err != nil {
				return res, fmt.Errorf("update record %s: %w", local.ID, err)
			}
			res.Updated++
			continue
		}

		qa := &model.QARecord{
			TeamID:          teamID,
			Question:        question,
			Answer:          answer,
			QuestionSummary: model.Summarize(question),
			AnswerSummary:   model.Summarize(answer),
			Source:          model.QASourceEngineSync,
			Status:          model.QAStatusActive,
			DatasetID:       datasetID,
			EditedBy:        actorID,
		}
		if err := r.store.Create(ctx, qa); err != nil {
			return res, fmt.Errorf("insert record: %w", err)
		}
		res.Imported++
	}

	// 4. Hard-delete engine-sourced records bound to this dataset whose
	// question vanished remotely. Records from other sources stay.
	for question, local := range byQuestion {
		if local.Source != model.QASourceEngineSync || local.DatasetID != datasetID {
			continue
		}
		if _, present := remote[question]; present {
			continue
		}
		if err := r.store.Delete(ctx, local.ID); err != nil {
			return res, fmt.Errorf("delete record %s: %w", local.ID, err)
		}
		res.Deleted++
	}

	r.logger.Info("reverse sync done", "dataset_id", datasetID,
		"imported", res.Imported, "updated", res.Updated, "deleted", res.Deleted,
		"skipped", res.Skipped, "parse_failed", res.ParseFailed, "errors", res.Errors)
	return res, nil
}

// SyncAll reconciles every given dataset, isolating failures so one
// unreachable dataset does not block the others. A failed dataset counts as
// one error in the aggregate.
func (r *Reverse) SyncAll(ctx context.Context, datasetIDs []string, teamID, actorID uuid.UUID) ReverseSyncResult {
	var total ReverseSyncResult
	for _, dsID := range datasetIDs {
		res, err := r.SyncDataset(ctx, dsID, teamID, actorID)
		total.add(res)
		if err != nil {
			r.logger.Error("dataset reverse sync failed", "dataset_id", dsID, "error", err)
			total.Errors++
		}
	}
	return total
}
