package syncer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

const (
	MatchExact    = "exact"
	MatchSemantic = "semantic"
)

// DuplicateResult describes the knowledge a candidate question collides
// with. ID is the matched local record id for exact matches and the remote
// document id for semantic ones.
type DuplicateResult struct {
	ID         string  `json:"id"`
	Question   string  `json:"question"`
	MatchType  string  `json:"match_type"`
	Similarity float64 `json:"similarity"`
}

// Detector runs the two-level duplicate check: exact question text against
// the local store, then semantic similarity against the remote engine.
type Detector struct {
	store    QAStore
	datasets DatasetSource
	gw       Gateway
	logger   *slog.Logger
}

func NewDetector(store QAStore, datasets DatasetSource, gw Gateway) *Detector {
	return &Detector{
		store:    store,
		datasets: datasets,
		gw:       gw,
		logger:   slog.Default().With("component", "qa_dedup"),
	}
}

// Check returns nil when the question is not a duplicate. excludeID skips a
// record during exact matching (used when editing that record). The check is
// advisory: remote failures degrade to "no semantic duplicate" instead of
// propagating.
func (d *Detector) Check(ctx context.Context, question string, teamID uuid.UUID, excludeID uuid.UUID) (*DuplicateResult, error) {
	exact, err := d.store.FindByQuestion(ctx, teamID, question, excludeID)
	if err != nil {
		return nil, err
	}
	if exact != nil {
		return &DuplicateResult{
			ID:         exact.ID.String(),
			Question:   model.Summarize(exact.Question),
			MatchType:  MatchExact,
			Similarity: 1.0,
		}, nil
	}

	return d.semanticMatch(ctx, question, teamID), nil
}

func (d *Detector) semanticMatch(ctx context.Context, question string, teamID uuid.UUID) *DuplicateResult {
	datasetIDs, err := d.datasets.DatasetIDs(ctx, teamID)
	if err != nil {
		d.logger.Warn("dataset lookup failed, skipping semantic check", "team_id", teamID, "error", err)
		return nil
	}
	if len(datasetIDs) == 0 {
		d.logger.Debug("team has no bound datasets, skipping semantic check", "team_id", teamID)
		return nil
	}

	chunks, err := d.gw.Retrieval(ctx, question, datasetIDs, SimilarityThreshold, 1)
	if err != nil {
		d.logger.Warn("retrieval failed, skipping semantic check", "error", err)
		return nil
	}
	if len(chunks) == 0 {
		return nil
	}

	top := chunks[0]
	if top.Similarity < SimilarityThreshold {
		return nil
	}
	return &DuplicateResult{
		ID:         top.DocumentID,
		Question:   model.Summarize(top.Content),
		MatchType:  MatchSemantic,
		Similarity: top.Similarity,
	}
}
