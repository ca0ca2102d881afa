package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

func newTestRouter(gw Gateway, store QAStore, datasets DatasetSource) *Router {
	return NewRouter(newTestForward(gw), store, datasets)
}

func TestRouterGroupsByBindingInFirstSeenOrder(t *testing.T) {
	teamID := uuid.New()
	gw := newFakeGateway()
	gw.addDoc("ds-b", "doc-b", "b.xlsx", qaChunk("seed", "a"))
	gw.addDoc("ds-a", "doc-a", "a.xlsx", qaChunk("seed", "a"))

	store := &fakeStore{}
	r1 := store.add(model.QARecord{TeamID: teamID, Question: "q1", Answer: "a1", DatasetID: "ds-b", Status: model.QAStatusActive})
	r2 := store.add(model.QARecord{TeamID: teamID, Question: "q2", Answer: "a2", DatasetID: "ds-a", Status: model.QAStatusActive})
	r3 := store.add(model.QARecord{TeamID: teamID, Question: "q3", Answer: "a3", DatasetID: "ds-b", Status: model.QAStatusActive})

	router := newTestRouter(gw, store, &fakeDatasets{})
	outcomes, err := router.Push(context.Background(), "",
		[]model.QARecord{*r1, *r2, *r3},
		activeSet("seed", "q1", "q2", "q3"), teamID)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "ds-b", outcomes[0].DatasetID)
	assert.Equal(t, "name:ds-b", outcomes[0].DatasetName)
	assert.Equal(t, 2, outcomes[0].Appended)
	assert.Equal(t, "ds-a", outcomes[1].DatasetID)
	assert.Equal(t, 1, outcomes[1].Appended)
}

func TestRouterUnassignedRequireTarget(t *testing.T) {
	teamID := uuid.New()
	store := &fakeStore{}
	rec := store.add(model.QARecord{TeamID: teamID, Question: "q1", Answer: "a1", Status: model.QAStatusActive})

	router := newTestRouter(newFakeGateway(), store, &fakeDatasets{})
	_, err := router.Push(context.Background(), "", []model.QARecord{*rec}, activeSet("q1"), teamID)

	var target *TargetRequiredError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 1, target.Unassigned)
}

func TestRouterUnassignedFoldIntoTarget(t *testing.T) {
	teamID := uuid.New()
	gw := newFakeGateway()
	gw.addDoc("ds-t", "doc-t", "t.xlsx", qaChunk("seed", "a"))

	store := &fakeStore{}
	bound := store.add(model.QARecord{TeamID: teamID, Question: "q1", Answer: "a1", DatasetID: "ds-t", Status: model.QAStatusActive})
	loose := store.add(model.QARecord{TeamID: teamID, Question: "q2", Answer: "a2", Status: model.QAStatusActive})

	router := newTestRouter(gw, store, &fakeDatasets{})
	outcomes, err := router.Push(context.Background(), "ds-t",
		[]model.QARecord{*bound, *loose}, activeSet("seed", "q1", "q2"), teamID)
	require.NoError(t, err)

	require.Len(t, outcomes, 1)
	assert.Equal(t, 2, outcomes[0].Appended)

	// The loose record is now bound to the target dataset.
	assert.Equal(t, "ds-t", store.find(loose.ID).DatasetID)
}

func TestRouterWriteBacksOnlyAfterSuccess(t *testing.T) {
	teamID := uuid.New()
	gw := newFakeGateway()
	gw.addDoc("ds-ok", "doc-ok", "ok.xlsx", qaChunk("seed", "a"))

	store := &fakeStore{}
	good := store.add(model.QARecord{
		TeamID: teamID, Question: "q1", Answer: "a1", DatasetID: "ds-ok",
		IsModified: true, PreviousQuestion: "q1 old", Status: model.QAStatusActive,
	})

	router := newTestRouter(gw, store, &fakeDatasets{})
	outcomes, err := router.Push(context.Background(), "",
		[]model.QARecord{*good}, activeSet("seed", "q1"), teamID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	// Modification markers cleared after the group succeeded.
	stored := store.find(good.ID)
	assert.False(t, stored.IsModified)
	assert.Empty(t, stored.PreviousQuestion)
}

func TestRouterFailedGroupIsolated(t *testing.T) {
	teamID := uuid.New()
	gw := newFakeGateway()
	gw.addDoc("ds-ok", "doc-ok", "ok.xlsx", qaChunk("seed", "a"))

	store := &fakeStore{}
	failing := store.add(model.QARecord{
		TeamID: teamID, Question: "q-fail", Answer: "a", DatasetID: "ds-bad",
		IsModified: true, Status: model.QAStatusActive,
	})
	passing := store.add(model.QARecord{TeamID: teamID, Question: "q-ok", Answer: "a", DatasetID: "ds-ok", Status: model.QAStatusActive})

	failGW := &failingDatasetGateway{fakeGateway: gw, failDataset: "ds-bad"}

	router := newTestRouter(failGW, store, &fakeDatasets{})
	outcomes, err := router.Push(context.Background(), "",
		[]model.QARecord{*failing, *passing}, activeSet("seed", "q-fail", "q-ok"), teamID)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "error", outcomes[0].Strategy)
	assert.Equal(t, "ds-bad", outcomes[0].DatasetID)
	assert.Equal(t, "append", outcomes[1].Strategy)

	// No write-back for the failed group, write-back for the good one.
	assert.True(t, store.find(failing.ID).IsModified)
	assert.Equal(t, "ds-ok", store.find(passing.ID).DatasetID)
}

// failingDatasetGateway fails ListQADocuments for one dataset only.
type failingDatasetGateway struct {
	*fakeGateway
	failDataset string
}

func (g *failingDatasetGateway) ListQADocuments(ctx context.Context, datasetID string) ([]engine.Document, error) {
	if datasetID == g.failDataset {
		return nil, errors.New("dataset unreachable")
	}
	return g.fakeGateway.ListQADocuments(ctx, datasetID)
}
