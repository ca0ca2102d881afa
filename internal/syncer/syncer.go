// Package syncer keeps the local QA store and the remote engine's
// per-dataset document/chunk projection of the same QA pairs eventually
// consistent. Forward sync pushes locally authored records out, reverse
// sync pulls engine-side edits back, and the duplicate detector guards
// admission of new knowledge.
package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
)

const (
	// SimilarityThreshold classifies a retrieval hit as a semantic duplicate.
	SimilarityThreshold = 0.90

	// maxAppendTotal caps chunks in the append-target document; beyond it
	// new pairs go through file upload instead.
	maxAppendTotal = 1000

	// maxPerFile caps rows per generated spreadsheet; extra rows spill into
	// additional files.
	maxPerFile = 1000

	filenamePrefix = "qa_sync"
	chunkTemplate  = "Question: %s\tAnswer: %s"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Gateway is the remote engine surface the sync engines and the duplicate
// detector depend on. *engine.Client satisfies it.
type Gateway interface {
	ListQADocuments(ctx context.Context, datasetID string) ([]engine.Document, error)
	DocumentChunkCount(ctx context.Context, datasetID, documentID string) (int, error)
	ListAllChunks(ctx context.Context, datasetID, documentID string) ([]engine.Chunk, error)
	CreateChunk(ctx context.Context, datasetID, documentID, content string) (string, error)
	DeleteChunk(ctx context.Context, datasetID, documentID, chunkID string) error
	UploadDocuments(ctx context.Context, datasetID string, files []engine.FileUpload) ([]string, error)
	SetChunkMethod(ctx context.Context, datasetID, documentID, method string) error
	TriggerParsing(ctx context.Context, datasetID string, documentIDs []string) error
	Retrieval(ctx context.Context, question string, datasetIDs []string, threshold float64, topK int) ([]engine.Chunk, error)
}

// QAStore is the slice of the local store the sync engines need.
// *repository.QARecordRepository satisfies it.
type QAStore interface {
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.QARecord, error)
	FindByQuestion(ctx context.Context, teamID uuid.UUID, question string, excludeID uuid.UUID) (*model.QARecord, error)
	Create(ctx context.Context, qa *model.QARecord) error
	Update(ctx context.Context, qa *model.QARecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DatasetSource resolves a team's remote dataset bindings.
type DatasetSource interface {
	DatasetIDs(ctx context.Context, teamID uuid.UUID) ([]string, error)
	NamesByID(ctx context.Context, datasetIDs []string) (map[string]string, error)
}

// ChunkLocation addresses one chunk occurrence of a question.
type ChunkLocation struct {
	DocumentID   string
	DocumentName string
	ChunkID      string
}

// locationIndex maps a question to every chunk holding it, built once per
// sync pass during cleanup so later steps never re-scan the remote side
// (re-querying right after a write may observe stale data).
type locationIndex map[string][]ChunkLocation

// SyncOutcome summarizes one dataset's forward push.
type SyncOutcome struct {
	DatasetID     string   `json:"dataset_id"`
	DatasetName   string   `json:"dataset_name"`
	Strategy      string   `json:"strategy"`
	Message       string   `json:"message"`
	Appended      int      `json:"appended"`
	Skipped       int      `json:"skipped"`
	Updated       int      `json:"updated"`
	Cleaned       int      `json:"cleaned"`
	UploadedFiles int      `json:"uploaded_files"`
	TotalQA       int      `json:"total_qa"`
	FileNames     []string `json:"file_names"`
}

// ReverseSyncResult summarizes one dataset's reverse pull.
type ReverseSyncResult struct {
	Imported    int `json:"imported"`
	Updated     int `json:"updated"`
	Deleted     int `json:"deleted"`
	Skipped     int `json:"skipped"`
	ParseFailed int `json:"parse_failed"`
	Errors      int `json:"errors"`
}

func (r *ReverseSyncResult) add(other ReverseSyncResult) {
	r.Imported += other.Imported
	r.Updated += other.Updated
	r.Deleted += other.Deleted
	r.Skipped += other.Skipped
	r.ParseFailed += other.ParseFailed
	r.Errors += other.Errors
}

// TargetRequiredError reports that the batch contains records with no
// dataset binding and the caller supplied no target dataset to absorb them.
type TargetRequiredError struct {
	Unassigned int
}

func (e *TargetRequiredError) Error() string {
	return fmt.Sprintf("%d records have no dataset binding, choose a target dataset", e.Unassigned)
}
