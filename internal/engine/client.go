package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/JerryYuan4733/ragflow-tyh/internal/config"
)

const (
	maxRetries      = 2
	retryDelay      = time.Second
	chunkPageSize   = 100
	chunkMaxPages   = 200
	documentMaxPage = 100
)

// Client is a typed HTTP client for the remote RAG engine. Connection
// settings come from the injected EngineSettings holder so an admin reload
// takes effect on the next request without restarting.
type Client struct {
	settings   *config.EngineSettings
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(settings *config.EngineSettings) *Client {
	return &Client{
		settings: settings,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: slog.Default().With("component", "engine_client"),
	}
}

type envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// request issues one JSON request, retrying transparently on connection
// failures. Non-2xx statuses and non-zero envelope codes become errors.
func (c *Client) request(ctx context.Context, method, path string, body any, params map[string]string) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	reqURL := c.settings.BaseURL() + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		reqURL += "?" + values.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.settings.APIKey())
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("engine request failed",
				"method", method, "path", path,
				"attempt", attempt+1, "error", err)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < maxRetries {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryDelay):
				}
			}
			continue
		}
		return c.checkResponse(resp)
	}
	return nil, fmt.Errorf("engine request %s %s: %w", method, path, lastErr)
}

func (c *Client) checkResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine API status %d: %s", resp.StatusCode, string(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Code != nil && *env.Code != 0 && *env.Code != 200 {
		return nil, fmt.Errorf("engine API error %d: %s", *env.Code, env.Message)
	}
	return env.Data, nil
}

// ==================== Datasets ====================

func (c *Client) ListDatasets(ctx context.Context, page, size int) ([]Dataset, error) {
	data, err := c.request(ctx, http.MethodGet, "/datasets", nil, map[string]string{
		"page":      fmt.Sprint(page),
		"page_size": fmt.Sprint(size),
	})
	if err != nil {
		return nil, err
	}
	var datasets []Dataset
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, fmt.Errorf("decode datasets: %w", err)
	}
	return datasets, nil
}

// ==================== Documents ====================

// ListDocuments lists documents in a dataset. The engine wraps the list as
// {"total": N, "docs": [...]} on current versions and returns a bare list on
// older ones; both shapes are accepted.
func (c *Client) ListDocuments(ctx context.Context, datasetID string, page, size int) ([]Document, error) {
	data, err := c.request(ctx, http.MethodGet, "/datasets/"+datasetID+"/documents", nil, map[string]string{
		"page":      fmt.Sprint(page),
		"page_size": fmt.Sprint(size),
	})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Total int        `json:"total"`
		Docs  []Document `json:"docs"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Docs != nil {
		return wrapped.Docs, nil
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return docs, nil
}

// ListQADocuments returns the dataset's documents whose parsing mode is QA.
func (c *Client) ListQADocuments(ctx context.Context, datasetID string) ([]Document, error) {
	docs, err := c.ListDocuments(ctx, datasetID, 1, documentMaxPage)
	if err != nil {
		return nil, err
	}
	qa := docs[:0:0]
	for _, d := range docs {
		if d.EffectiveParser() == ChunkMethodQA {
			qa = append(qa, d)
		}
	}
	return qa, nil
}

func (c *Client) DeleteDocument(ctx context.Context, datasetID, documentID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/datasets/"+datasetID+"/documents",
		map[string]any{"ids": []string{documentID}}, nil)
	return err
}

// SetChunkMethod updates a document's parsing mode (naive/qa/table/...).
func (c *Client) SetChunkMethod(ctx context.Context, datasetID, documentID, method string) error {
	_, err := c.request(ctx, http.MethodPut, "/datasets/"+datasetID+"/documents/"+documentID,
		map[string]any{"chunk_method": method}, nil)
	if err != nil {
		return err
	}
	c.logger.Info("document parsing mode updated", "document_id", documentID, "chunk_method", method)
	return nil
}

// TriggerParsing asks the engine to chunk and embed the given documents.
func (c *Client) TriggerParsing(ctx context.Context, datasetID string, documentIDs []string) error {
	_, err := c.request(ctx, http.MethodPost, "/datasets/"+datasetID+"/chunks",
		map[string]any{"document_ids": documentIDs}, nil)
	if err != nil {
		return err
	}
	c.logger.Info("parsing triggered", "dataset_id", datasetID, "documents", len(documentIDs))
	return nil
}

// UploadDocuments uploads in-memory files one by one and returns the new
// document ids. Each file goes in its own multipart request; sharing the
// JSON Content-Type of the regular client breaks the upload.
func (c *Client) UploadDocuments(ctx context.Context, datasetID string, files []FileUpload) ([]string, error) {
	var docIDs []string
	for _, f := range files {
		id, err := c.uploadOne(ctx, datasetID, f)
		if err != nil {
			return docIDs, fmt.Errorf("upload %s: %w", f.Name, err)
		}
		if id == "" {
			c.logger.Warn("upload returned no document info", "file", f.Name)
			continue
		}
		c.logger.Info("document uploaded", "file", f.Name, "document_id", id)
		docIDs = append(docIDs, id)
	}
	return docIDs, nil
}

func (c *Client) uploadOne(ctx context.Context, datasetID string, f FileUpload) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(f.Content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.settings.BaseURL()+"/datasets/"+datasetID+"/documents", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey())
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	data, err := c.checkResponse(resp)
	if err != nil {
		return "", err
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		// Some versions return a single object instead of a list.
		var doc Document
		if err2 := json.Unmarshal(data, &doc); err2 != nil {
			return "", fmt.Errorf("decode upload response: %w", err)
		}
		return doc.ID, nil
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].ID, nil
}

// ==================== Chunks ====================

type chunkPage struct {
	Total  int     `json:"total"`
	Chunks []Chunk `json:"chunks"`
}

// DocumentChunkCount fetches the exact chunk total of a document by
// requesting a single-row page.
func (c *Client) DocumentChunkCount(ctx context.Context, datasetID, documentID string) (int, error) {
	data, err := c.request(ctx, http.MethodGet,
		"/datasets/"+datasetID+"/documents/"+documentID+"/chunks", nil,
		map[string]string{"page": "1", "page_size": "1"})
	if err != nil {
		return 0, err
	}
	var page chunkPage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, fmt.Errorf("decode chunk count: %w", err)
		}
	}
	return page.Total, nil
}

// ListAllChunks pages through every chunk of a document. The engine returns
// data=null for out-of-range pages; an empty or short page ends the walk,
// and three consecutive page failures abort it with whatever was collected.
func (c *Client) ListAllChunks(ctx context.Context, datasetID, documentID string) ([]Chunk, error) {
	var all []Chunk
	consecutiveErrors := 0
	for page := 1; page <= chunkMaxPages; page++ {
		data, err := c.request(ctx, http.MethodGet,
			"/datasets/"+datasetID+"/documents/"+documentID+"/chunks", nil,
			map[string]string{"page": fmt.Sprint(page), "page_size": fmt.Sprint(chunkPageSize)})
		if err != nil {
			consecutiveErrors++
			c.logger.Warn("chunk page fetch failed", "document_id", documentID, "page", page, "error", err)
			if consecutiveErrors >= 3 {
				c.logger.Error("three consecutive chunk pages failed, stopping", "document_id", documentID)
				break
			}
			continue
		}
		consecutiveErrors = 0

		var p chunkPage
		if len(data) > 0 && string(data) != "null" {
			if err := json.Unmarshal(data, &p); err != nil {
				return all, fmt.Errorf("decode chunks page %d: %w", page, err)
			}
		}
		if len(p.Chunks) == 0 {
			break
		}
		all = append(all, p.Chunks...)
		if len(p.Chunks) < chunkPageSize {
			break
		}
	}
	return all, nil
}

func (c *Client) CreateChunk(ctx context.Context, datasetID, documentID, content string) (string, error) {
	data, err := c.request(ctx, http.MethodPost,
		"/datasets/"+datasetID+"/documents/"+documentID+"/chunks",
		map[string]any{"content": content, "important_keywords": []string{}}, nil)
	if err != nil {
		return "", err
	}
	var created struct {
		Chunk Chunk `json:"chunk"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("decode created chunk: %w", err)
	}
	return created.Chunk.ID, nil
}

func (c *Client) DeleteChunk(ctx context.Context, datasetID, documentID, chunkID string) error {
	_, err := c.request(ctx, http.MethodDelete,
		"/datasets/"+datasetID+"/documents/"+documentID+"/chunks",
		map[string]any{"chunk_ids": []string{chunkID}}, nil)
	return err
}

// ==================== Retrieval ====================

// Retrieval runs a similarity search across the given datasets. Used by the
// duplicate detector for semantic matching.
func (c *Client) Retrieval(ctx context.Context, question string, datasetIDs []string, threshold float64, topK int) ([]Chunk, error) {
	data, err := c.request(ctx, http.MethodPost, "/retrieval", map[string]any{
		"question":             question,
		"dataset_ids":          datasetIDs,
		"similarity_threshold": threshold,
		"top_k":                topK,
	}, nil)
	if err != nil {
		return nil, err
	}
	var page chunkPage
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode retrieval: %w", err)
		}
	}
	return page.Chunks, nil
}
