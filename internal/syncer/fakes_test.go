package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

// fakeGateway is an in-memory engine: datasets hold documents, documents
// hold chunks. Individual operations can be overridden or forced to fail.
type fakeGateway struct {
	docs   map[string][]engine.Document        // datasetID -> documents
	chunks map[string][]engine.Chunk           // documentID -> chunks
	counts map[string]int                      // documentID -> chunk count override
	nextID int

	createErr    error
	createErrAt  int // fail the Nth CreateChunk call (1-based), 0 = per createErr always
	createCalls  int
	uploadErr    error
	listDocsErr  error
	listChunkErr map[string]error

	retrievalHits []engine.Chunk
	retrievalErr  error

	created  []string // contents passed to CreateChunk
	deleted  []string // chunk ids passed to DeleteChunk
	uploaded []engine.FileUpload
	parsed   [][]string
	methods  map[string]string // documentID -> chunk method
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		docs:         make(map[string][]engine.Document),
		chunks:       make(map[string][]engine.Chunk),
		counts:       make(map[string]int),
		listChunkErr: make(map[string]error),
		methods:      make(map[string]string),
	}
}

func (g *fakeGateway) addDoc(datasetID, docID, name string, chunkContents ...string) {
	g.docs[datasetID] = append(g.docs[datasetID], engine.Document{
		ID: docID, Name: name, ChunkMethod: engine.ChunkMethodQA, ChunkCount: len(chunkContents),
	})
	for i, content := range chunkContents {
		g.chunks[docID] = append(g.chunks[docID], engine.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%d", docID, i),
			Content:    content,
			DocumentID: docID,
		})
	}
}

func (g *fakeGateway) ListQADocuments(ctx context.Context, datasetID string) ([]engine.Document, error) {
	if g.listDocsErr != nil {
		return nil, g.listDocsErr
	}
	return g.docs[datasetID], nil
}

func (g *fakeGateway) DocumentChunkCount(ctx context.Context, datasetID, documentID string) (int, error) {
	if n, ok := g.counts[documentID]; ok {
		return n, nil
	}
	return len(g.chunks[documentID]), nil
}

func (g *fakeGateway) ListAllChunks(ctx context.Context, datasetID, documentID string) ([]engine.Chunk, error) {
	if err := g.listChunkErr[documentID]; err != nil {
		return nil, err
	}
	return g.chunks[documentID], nil
}

func (g *fakeGateway) CreateChunk(ctx context.Context, datasetID, documentID, content string) (string, error) {
	g.createCalls++
	if g.createErr != nil && (g.createErrAt == 0 || g.createCalls == g.createErrAt) {
		return "", g.createErr
	}
	g.nextID++
	id := fmt.Sprintf("new-chunk-%d", g.nextID)
	g.chunks[documentID] = append(g.chunks[documentID], engine.Chunk{
		ID: id, Content: content, DocumentID: documentID,
	})
	g.created = append(g.created, content)
	return id, nil
}

func (g *fakeGateway) DeleteChunk(ctx context.Context, datasetID, documentID, chunkID string) error {
	g.deleted = append(g.deleted, chunkID)
	kept := g.chunks[documentID][:0]
	for _, c := range g.chunks[documentID] {
		if c.ID != chunkID {
			kept = append(kept, c)
		}
	}
	g.chunks[documentID] = kept
	return nil
}

func (g *fakeGateway) UploadDocuments(ctx context.Context, datasetID string, files []engine.FileUpload) ([]string, error) {
	if g.uploadErr != nil {
		return nil, g.uploadErr
	}
	var ids []string
	for _, f := range files {
		g.uploaded = append(g.uploaded, f)
		g.nextID++
		ids = append(ids, fmt.Sprintf("uploaded-doc-%d", g.nextID))
	}
	return ids, nil
}

func (g *fakeGateway) SetChunkMethod(ctx context.Context, datasetID, documentID, method string) error {
	g.methods[documentID] = method
	return nil
}

func (g *fakeGateway) TriggerParsing(ctx context.Context, datasetID string, documentIDs []string) error {
	g.parsed = append(g.parsed, documentIDs)
	return nil
}

func (g *fakeGateway) Retrieval(ctx context.Context, question string, datasetIDs []string, threshold float64, topK int) ([]engine.Chunk, error) {
	if g.retrievalErr != nil {
		return nil, g.retrievalErr
	}
	return g.retrievalHits, nil
}

// chunkContents returns the current content of every chunk in a document.
func (g *fakeGateway) chunkContents(docID string) []string {
	var out []string
	for _, c := range g.chunks[docID] {
		out = append(out, c.Content)
	}
	return out
}

func qaChunk(q, a string) string {
	return fmt.Sprintf("Question: %s\tAnswer: %s", q, a)
}

// fakeStore keeps QARecords in insertion order.
type fakeStore struct {
	records   []*model.QARecord
	createErr error
	updateErr error

	updatedIDs []uuid.UUID
	deletedIDs []uuid.UUID
}

func (s *fakeStore) add(qa model.QARecord) *model.QARecord {
	if qa.ID == uuid.Nil {
		qa.ID = uuid.New()
	}
	if qa.Version == 0 {
		qa.Version = 1
	}
	rec := qa
	s.records = append(s.records, &rec)
	return &rec
}

func (s *fakeStore) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.QARecord, error) {
	var out []model.QARecord
	for _, r := range s.records {
		if r.TeamID == teamID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByQuestion(ctx context.Context, teamID uuid.UUID, question string, excludeID uuid.UUID) (*model.QARecord, error) {
	for _, r := range s.records {
		if r.TeamID == teamID && r.Question == question && r.ID != excludeID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(ctx context.Context, qa *model.QARecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	if qa.ID == uuid.Nil {
		qa.ID = uuid.New()
	}
	if qa.Version == 0 {
		qa.Version = 1
	}
	s.records = append(s.records, qa)
	return nil
}

func (s *fakeStore) Update(ctx context.Context, qa *model.QARecord) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updatedIDs = append(s.updatedIDs, qa.ID)
	for i, r := range s.records {
		if r.ID == qa.ID {
			clone := *qa
			s.records[i] = &clone
			return nil
		}
	}
	s.records = append(s.records, qa)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.deletedIDs = append(s.deletedIDs, id)
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func (s *fakeStore) find(id uuid.UUID) *model.QARecord {
	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *fakeStore) findByQuestion(question string) *model.QARecord {
	for _, r := range s.records {
		if r.Question == question {
			return r
		}
	}
	return nil
}

// fakeDatasets resolves every id to "name:<id>" unless overridden.
type fakeDatasets struct {
	ids      []string
	idsErr   error
	names    map[string]string
	namesErr error
}

func (d *fakeDatasets) DatasetIDs(ctx context.Context, teamID uuid.UUID) ([]string, error) {
	if d.idsErr != nil {
		return nil, d.idsErr
	}
	return d.ids, nil
}

func (d *fakeDatasets) NamesByID(ctx context.Context, datasetIDs []string) (map[string]string, error) {
	if d.namesErr != nil {
		return nil, d.namesErr
	}
	if d.names != nil {
		return d.names, nil
	}
	out := make(map[string]string, len(datasetIDs))
	for _, id := range datasetIDs {
		out[id] = "name:" + id
	}
	return out, nil
}

func containsQuestion(contents []string, q string) bool {
	for _, c := range contents {
		if strings.Contains(c, "Question: "+q+"\t") {
			return true
		}
	}
	return false
}
