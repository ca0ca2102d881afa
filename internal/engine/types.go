package engine

// ChunkMethodQA is the parsing mode under which the remote engine renders
// each chunk of a document as one question/answer pair.
const ChunkMethodQA = "qa"

type Dataset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ChunkCount    int    `json:"chunk_count"`
	DocumentCount int    `json:"document_count"`
}

type Document struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Size        int64   `json:"size"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	ChunkCount  int     `json:"chunk_count"`
	Progress    float64 `json:"progress"`
	Run         string  `json:"run"`
	ParserID    string  `json:"parser_id"`    // returned by older engine versions
	ChunkMethod string  `json:"chunk_method"` // current field name
}

// EffectiveParser returns the document's parsing mode, preferring the
// current chunk_method field over the legacy parser_id.
func (d Document) EffectiveParser() string {
	if d.ChunkMethod != "" {
		return d.ChunkMethod
	}
	return d.ParserID
}

// Chunk is an atomic retrievable content fragment inside a parsed document.
// Depending on the engine version QA content lives entirely in Content, or
// splits across Content and ContentWithWeight.
type Chunk struct {
	ID                string  `json:"id"`
	Content           string  `json:"content"`
	ContentWithWeight string  `json:"content_with_weight"`
	DocumentID        string  `json:"document_id"`
	DocumentName      string  `json:"docnm_kwd"`
	Similarity        float64 `json:"similarity"`
}

type FileUpload struct {
	Name        string
	Content     []byte
	ContentType string
}

type Assistant struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DatasetIDs []string `json:"dataset_ids"`
}

type Session struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	ChatID string `json:"chat_id"`
}

// CompletionChunk is one SSE fragment of a streamed chat answer. Answer
// carries the increment, not the accumulated text.
type CompletionChunk struct {
	Answer    string         `json:"answer"`
	Reference map[string]any `json:"reference,omitempty"`
	IsFinal   bool           `json:"is_final"`
}
