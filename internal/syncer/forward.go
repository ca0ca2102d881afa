package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/xlsx"
)

// Forward pushes locally authored QA records into remote engine datasets.
// One SyncDataset call handles one dataset: stale-chunk cleanup, modified
// record replacement, append-or-upload of new pairs, and cross-document
// dedup, all driven by a single remote scan.
type Forward struct {
	gw     Gateway
	logger *slog.Logger
	now    func() time.Time
}

func NewForward(gw Gateway) *Forward {
	return &Forward{
		gw:     gw,
		logger: slog.Default().With("component", "forward_sync"),
		now:    time.Now,
	}
}

// SyncDataset pushes qaList into datasetID. activeQuestions is the team's
// full set of active question texts; remote chunks outside it are stale and
// get deleted during the cleanup pass.
func (f *Forward) SyncDataset(ctx context.Context, datasetID string, qaList []model.QARecord, activeQuestions map[string]struct{}) (SyncOutcome, error) {
	// 1. Split pending records into normal and modified.
	var normalPairs [][2]string
	var modified []model.QARecord
	modifiedQuestions := make(map[string]struct{})
	for _, qa := range qaList {
		if qa.IsModified {
			modified = append(modified, qa)
			modifiedQuestions[qa.Question] = struct{}{}
		} else {
			normalPairs = append(normalPairs, [2]string{qa.Question, qa.Answer})
		}
	}
	f.logger.Info("dataset push start",
		"dataset_id", datasetID, "normal", len(normalPairs), "modified", len(modified))

	// 2. Pick the append target: the QA document with the most chunks.
	qaDocs, err := f.gw.ListQADocuments(ctx, datasetID)
	if err != nil {
		return SyncOutcome{}, fmt.Errorf("list QA documents: %w", err)
	}

	var target *engine.Document
	targetChunkCount := 0
	for i := range qaDocs {
		if target == nil || qaDocs[i].ChunkCount > target.ChunkCount {
			target = &qaDocs[i]
		}
	}
	if target != nil {
		targetChunkCount, err = f.gw.DocumentChunkCount(ctx, datasetID, target.ID)
		if err != nil {
			return SyncOutcome{}, fmt.Errorf("count target chunks: %w", err)
		}
		f.logger.Info("append target candidate",
			"document", target.Name, "chunk_count", targetChunkCount)
	}

	// 3. Cleanup pass: drop stale chunks, index surviving active ones.
	cleaned, locations := f.cleanupInactiveChunks(ctx, datasetID, qaDocs, activeQuestions)

	// 4. Replace chunks of modified records. Without a target document there
	// is nothing to delete, so they join the normal push instead.
	updated := 0
	if len(modified) > 0 {
		if target != nil {
			updated = f.updateModifiedChunks(ctx, datasetID, target.ID, modified, locations)
		} else {
			for _, qa := range modified {
				normalPairs = append(normalPairs, [2]string{qa.Question, qa.Answer})
			}
			f.logger.Info("no QA document, modified records folded into normal push", "count", len(modified))
		}
	}

	if len(normalPairs) == 0 && len(modified) == 0 {
		msg := "no QA records to push"
		strategy := "none"
		if cleaned > 0 {
			msg = fmt.Sprintf("no QA records to push, cleaned %d stale chunks", cleaned)
			strategy = "cleanup_only"
		}
		return SyncOutcome{
			DatasetID: datasetID, Strategy: strategy, Message: msg,
			Updated: updated, Cleaned: cleaned,
		}, nil
	}

	if len(normalPairs) == 0 {
		msg := fmt.Sprintf("updated %d modified records", updated)
		if cleaned > 0 {
			msg += fmt.Sprintf(", cleaned %d stale chunks", cleaned)
		}
		return SyncOutcome{
			DatasetID: datasetID, Strategy: "update_only", Message: msg,
			Updated: updated, Cleaned: cleaned, TotalQA: updated,
		}, nil
	}

	// 5. Strategy selection for the normal pairs.
	canAppend := target != nil && targetChunkCount+len(normalPairs) <= maxAppendTotal

	var outcome SyncOutcome
	appendedQuestions := make(map[string]struct{})
	if canAppend {
		outcome, appendedQuestions, err = f.appendChunks(ctx, datasetID, target.ID, target.Name, normalPairs)
	} else {
		outcome, err = f.uploadFiles(ctx, datasetID, normalPairs)
	}
	if err != nil {
		return SyncOutcome{}, err
	}

	// 6. Cross-document dedup: a question now present in the target document
	// (pre-existing, just appended, or just replaced) must not survive as a
	// chunk in any other document. Decided from the index built in step 3;
	// a fresh scan right after the writes could observe stale data.
	if target != nil {
		for q := range modifiedQuestions {
			appendedQuestions[q] = struct{}{}
		}
		outcome.Cleaned = cleaned + f.dedupAcrossDocuments(ctx, datasetID, locations, target.ID, appendedQuestions)
	} else {
		outcome.Cleaned = cleaned
	}

	outcome.DatasetID = datasetID
	outcome.Updated = updated
	if updated > 0 {
		outcome.Message += fmt.Sprintf(", updated %d modified records", updated)
	}
	if outcome.Cleaned > 0 {
		outcome.Message += fmt.Sprintf(", cleaned %d stale chunks", outcome.Cleaned)
	}
	return outcome, nil
}

// cleanupInactiveChunks scans every chunk of every QA document, deletes the
// ones whose question is no longer active, and indexes the locations of the
// surviving ones for the dedup and modified-record steps.
func (f *Forward) cleanupInactiveChunks(ctx context.Context, datasetID string, qaDocs []engine.Document, activeQuestions map[string]struct{}) (int, locationIndex) {
	cleaned := 0
	locations := make(locationIndex)
	for _, doc := range qaDocs {
		chunks, err := f.gw.ListAllChunks(ctx, datasetID, doc.ID)
		if err != nil {
			f.logger.Warn("cleanup scan failed for document", "document", doc.Name, "error", err)
			continue
		}
		for _, chunk := range chunks {
			q, _ := ExtractQA(chunk)
			if q == "" || chunk.ID == "" {
				continue
			}
			if _, active := activeQuestions[q]; !active {
				if err := f.gw.DeleteChunk(ctx, datasetID, doc.ID, chunk.ID); err != nil {
					f.logger.Warn("stale chunk delete failed",
						"document", doc.Name, "chunk_id", chunk.ID, "error", err)
					continue
				}
				cleaned++
			} else {
				locations[q] = append(locations[q], ChunkLocation{
					DocumentID:   doc.ID,
					DocumentName: doc.Name,
					ChunkID:      chunk.ID,
				})
			}
		}
	}
	if cleaned > 0 {
		f.logger.Info("stale chunks cleaned", "count", cleaned)
	}
	return cleaned, locations
}

// updateModifiedChunks deletes every chunk found under a modified record's
// previous question and its current question, then appends one fresh chunk
// to the target document. Covers both the question-changed and the
// answer-only-changed cases.
func (f *Forward) updateModifiedChunks(ctx context.Context, datasetID, targetDocID string, modified []model.QARecord, locations locationIndex) int {
	updated := 0
	for _, qa := range modified {
		if qa.PreviousQuestion != "" {
			for _, loc := range locations[qa.PreviousQuestion] {
				if err := f.gw.DeleteChunk(ctx, datasetID, loc.DocumentID, loc.ChunkID); err != nil {
					f.logger.Warn("old-question chunk delete failed",
						"document", loc.DocumentName, "error", err)
				}
			}
		}
		for _, loc := range locations[qa.Question] {
			if err := f.gw.DeleteChunk(ctx, datasetID, loc.DocumentID, loc.ChunkID); err != nil {
				f.logger.Warn("same-question chunk delete failed",
					"document", loc.DocumentName, "error", err)
			}
		}

		content := fmt.Sprintf(chunkTemplate, qa.Question, qa.Answer)
		if _, err := f.gw.CreateChunk(ctx, datasetID, targetDocID, content); err != nil {
			f.logger.Error("modified record append failed",
				"question", model.Summarize(qa.Question), "error", err)
			continue
		}
		updated++
	}
	if updated > 0 {
		f.logger.Info("modified records replaced", "count", updated)
	}
	return updated
}

// appendChunks appends pairs to the target document, skipping questions it
// already holds. A failed append degrades the remaining pairs to the upload
// strategy rather than aborting the batch.
func (f *Forward) appendChunks(ctx context.Context, datasetID, docID, docName string, pairs [][2]string) (SyncOutcome, map[string]struct{}, error) {
	chunks, err := f.gw.ListAllChunks(ctx, datasetID, docID)
	if err != nil {
		return SyncOutcome{}, nil, fmt.Errorf("list target chunks: %w", err)
	}
	existing := make(map[string]struct{})
	for _, chunk := range chunks {
		if q, _ := ExtractQA(chunk); q != "" {
			existing[q] = struct{}{}
		}
	}
	f.logger.Info("append strategy", "document", docName, "existing_questions", len(existing))

	appendedSet := make(map[string]struct{})
	appended := 0
	skipped := 0
	for i, pair := range pairs {
		q, a := pair[0], pair[1]
		if _, ok := existing[q]; ok {
			skipped++
			continue
		}
		content := fmt.Sprintf(chunkTemplate, q, a)
		if _, err := f.gw.CreateChunk(ctx, datasetID, docID, content); err != nil {
			f.logger.Warn("chunk append failed, falling back to upload", "error", err)
			var remaining [][2]string
			for _, p := range pairs[i:] {
				if _, ok := existing[p[0]]; !ok {
					remaining = append(remaining, p)
				}
			}
			if len(remaining) == 0 {
				break
			}
			fallback, err := f.uploadFiles(ctx, datasetID, remaining)
			if err != nil {
				return SyncOutcome{}, nil, err
			}
			return SyncOutcome{
				Strategy: "append+fallback",
				Message: fmt.Sprintf("appended %d, then uploaded %d via fallback",
					appended, fallback.TotalQA),
				Appended:      appended,
				Skipped:       skipped,
				UploadedFiles: fallback.UploadedFiles,
				TotalQA:       appended + fallback.TotalQA,
				FileNames:     fallback.FileNames,
			}, appendedSet, nil
		}
		existing[q] = struct{}{}
		appendedSet[q] = struct{}{}
		appended++
	}

	msg := fmt.Sprintf("appended %d to document %s", appended, docName)
	if skipped > 0 {
		msg += fmt.Sprintf(", skipped %d existing", skipped)
	}
	return SyncOutcome{
		Strategy: "append",
		Message:  msg,
		Appended: appended,
		Skipped:  skipped,
		TotalQA:  appended,
	}, appendedSet, nil
}

// uploadFiles serializes pairs into spreadsheet files, uploads them, sets
// each new document to QA parsing mode and triggers parsing.
func (f *Forward) uploadFiles(ctx context.Context, datasetID string, pairs [][2]string) (SyncOutcome, error) {
	files, err := xlsx.BuildQAFiles(pairs, f.now(), filenamePrefix, maxPerFile)
	if err != nil {
		return SyncOutcome{}, fmt.Errorf("build QA files: %w", err)
	}

	var uploadedNames []string
	for _, file := range files {
		docIDs, err := f.gw.UploadDocuments(ctx, datasetID, []engine.FileUpload{{
			Name:        file.Name,
			Content:     file.Content,
			ContentType: xlsxContentType,
		}})
		if err != nil {
			f.logger.Error("file upload failed", "file", file.Name, "error", err)
			continue
		}
		if len(docIDs) == 0 {
			f.logger.Error("upload returned no document id", "file", file.Name)
			continue
		}
		docID := docIDs[0]
		if err := f.gw.SetChunkMethod(ctx, datasetID, docID, engine.ChunkMethodQA); err != nil {
			f.logger.Warn("set parsing mode failed", "document_id", docID, "error", err)
		}
		if err := f.gw.TriggerParsing(ctx, datasetID, []string{docID}); err != nil {
			f.logger.Warn("trigger parsing failed", "document_id", docID, "error", err)
		}
		uploadedNames = append(uploadedNames, file.Name)
	}

	return SyncOutcome{
		Strategy:      "upload",
		Message:       fmt.Sprintf("uploaded %d files with %d QA pairs", len(uploadedNames), len(pairs)),
		UploadedFiles: len(uploadedNames),
		TotalQA:       len(pairs),
		FileNames:     uploadedNames,
	}, nil
}

// dedupAcrossDocuments deletes non-target copies of every question that now
// lives in the target document. Pure decision from the scan index plus the
// appended/modified sets; only the deletes touch the remote side.
func (f *Forward) dedupAcrossDocuments(ctx context.Context, datasetID string, locations locationIndex, targetDocID string, pushedQuestions map[string]struct{}) int {
	if targetDocID == "" {
		return 0
	}
	deleted := 0
	for q, locs := range locations {
		inTarget := false
		for _, loc := range locs {
			if loc.DocumentID == targetDocID {
				inTarget = true
				break
			}
		}
		if _, pushed := pushedQuestions[q]; !inTarget && !pushed {
			continue
		}
		for _, loc := range locs {
			if loc.DocumentID == targetDocID {
				continue
			}
			if err := f.gw.DeleteChunk(ctx, datasetID, loc.DocumentID, loc.ChunkID); err != nil {
				f.logger.Warn("cross-document dedup delete failed",
					"document", loc.DocumentName, "chunk_id", loc.ChunkID, "error", err)
				continue
			}
			deleted++
		}
	}
	if deleted > 0 {
		f.logger.Info("cross-document duplicates removed", "count", deleted)
	}
	return deleted
}
