package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JerryYuan4733/ragflow-tyh/internal/config"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	settings := config.NewEngineSettings(srv.URL, "test-key")
	return NewClient(settings), srv
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	payload, _ := json.Marshal(map[string]any{"code": code, "data": data})
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, 0, []any{})
	}))
	defer srv.Close()

	_, err := client.ListDatasets(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClientEnvelopeErrorCode(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 102, "message": "dataset not found"}`))
	}))
	defer srv.Close()

	_, err := client.ListDatasets(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset not found")
}

func TestClientAcceptsZeroAnd200Codes(t *testing.T) {
	for _, code := range []int{0, 200} {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, code, []Dataset{{ID: "ds-1", Name: "kb"}})
		}))
		datasets, err := client.ListDatasets(context.Background(), 1, 10)
		srv.Close()
		require.NoError(t, err, "code %d", code)
		require.Len(t, datasets, 1)
		assert.Equal(t, "ds-1", datasets[0].ID)
	}
}

func TestClientMissingCodeAccepted(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": "ds-1"}]}`))
	}))
	defer srv.Close()

	datasets, err := client.ListDatasets(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
}

func TestClientHTTPStatusError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.ListDatasets(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestListDocumentsBothShapes(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 0, map[string]any{
				"total": 1,
				"docs":  []Document{{ID: "doc-1", Name: "a.xlsx"}},
			})
		}))
		defer srv.Close()

		docs, err := client.ListDocuments(context.Background(), "ds-1", 1, 10)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-1", docs[0].ID)
	})

	t.Run("bare list", func(t *testing.T) {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, 0, []Document{{ID: "doc-2"}})
		}))
		defer srv.Close()

		docs, err := client.ListDocuments(context.Background(), "ds-1", 1, 10)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-2", docs[0].ID)
	})
}

func TestListQADocumentsFiltersByParsingMode(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, map[string]any{"docs": []Document{
			{ID: "doc-qa", ChunkMethod: "qa"},
			{ID: "doc-legacy", ParserID: "qa"},
			{ID: "doc-naive", ChunkMethod: "naive"},
			{ID: "doc-overridden", ParserID: "qa", ChunkMethod: "naive"},
		}})
	}))
	defer srv.Close()

	docs, err := client.ListQADocuments(context.Background(), "ds-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-qa", docs[0].ID)
	assert.Equal(t, "doc-legacy", docs[1].ID)
}

func TestDocumentChunkCount(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page_size"))
		writeEnvelope(w, 0, map[string]any{"total": 937, "chunks": []Chunk{{ID: "c-1"}}})
	}))
	defer srv.Close()

	count, err := client.DocumentChunkCount(context.Background(), "ds-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 937, count)
}

func TestListAllChunksPagination(t *testing.T) {
	// Page 1 is full, page 2 is short: the walk stops without a third call.
	var requestedPages []string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requestedPages = append(requestedPages, page)
		var chunks []Chunk
		n := 100
		if page == "2" {
			n = 30
		}
		for i := 0; i < n; i++ {
			chunks = append(chunks, Chunk{ID: fmt.Sprintf("p%s-c%d", page, i)})
		}
		writeEnvelope(w, 0, map[string]any{"total": 130, "chunks": chunks})
	}))
	defer srv.Close()

	chunks, err := client.ListAllChunks(context.Background(), "ds-1", "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 130)
	assert.Equal(t, []string{"1", "2"}, requestedPages)
}

func TestListAllChunksNullData(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 0, "data": null}`))
	}))
	defer srv.Close()

	chunks, err := client.ListAllChunks(context.Background(), "ds-1", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestListAllChunksAbortsAfterConsecutiveErrors(t *testing.T) {
	calls := 0
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"code": 500, "message": "boom"}`))
	}))
	defer srv.Close()

	chunks, err := client.ListAllChunks(context.Background(), "ds-1", "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 3, calls)
}

func TestCreateChunkDecodesWrappedID(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Question: q\tAnswer: a", body["content"])
		writeEnvelope(w, 0, map[string]any{"chunk": Chunk{ID: "chunk-9"}})
	}))
	defer srv.Close()

	id, err := client.CreateChunk(context.Background(), "ds-1", "doc-1", "Question: q\tAnswer: a")
	require.NoError(t, err)
	assert.Equal(t, "chunk-9", id)
}

func TestUploadDocumentsMultipart(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "qa_sync_1.xlsx", header.Filename)
		writeEnvelope(w, 0, []Document{{ID: "doc-up-1"}})
	}))
	defer srv.Close()

	ids, err := client.UploadDocuments(context.Background(), "ds-1", []FileUpload{
		{Name: "qa_sync_1.xlsx", Content: []byte("payload")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-up-1"}, ids)
}

func TestUploadDocumentsObjectResponse(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, Document{ID: "doc-obj"})
	}))
	defer srv.Close()

	ids, err := client.UploadDocuments(context.Background(), "ds-1", []FileUpload{
		{Name: "f.xlsx", Content: []byte("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-obj"}, ids)
}

func TestRetrievalPassesThreshold(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 0.9, body["similarity_threshold"])
		assert.Equal(t, float64(1), body["top_k"])
		writeEnvelope(w, 0, map[string]any{"chunks": []Chunk{{ID: "c-1", Similarity: 0.93}}})
	}))
	defer srv.Close()

	chunks, err := client.Retrieval(context.Background(), "q", []string{"ds-1"}, 0.9, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0.93, chunks[0].Similarity)
}

func TestClientRetriesConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	settings := config.NewEngineSettings(srv.URL, "k")
	client := NewClient(settings)
	srv.Close() // every request now fails at the transport level

	_, err := client.ListDatasets(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine request")
}
