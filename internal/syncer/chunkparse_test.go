package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
)

func TestExtractQALabeled(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantQ   string
		wantA   string
	}{
		{
			name:    "tab separated with labels",
			content: "Question: 退货流程？\tAnswer: 7天无理由退货。",
			wantQ:   "退货流程？",
			wantA:   "7天无理由退货。",
		},
		{
			name:    "space separated cjk",
			content: "Question: 退货流程？  Answer: 7天无理由退货。",
			wantQ:   "退货流程？",
			wantA:   "7天无理由退货。",
		},
		{
			name:    "space separated",
			content: "Question: How do I reset my password? Answer: Use the forgot-password link.",
			wantQ:   "How do I reset my password?",
			wantA:   "Use the forgot-password link.",
		},
		{
			name:    "newline separated",
			content: "Question: What is the SLA?\nAnswer: 99.9% monthly uptime.",
			wantQ:   "What is the SLA?",
			wantA:   "99.9% monthly uptime.",
		},
		{
			name:    "case insensitive labels",
			content: "question: ping? ANSWER: pong.",
			wantQ:   "ping?",
			wantA:   "pong.",
		},
		{
			name:    "no question label",
			content: "How to file an expense?\tAnswer: Through the portal.",
			wantQ:   "How to file an expense?",
			wantA:   "Through the portal.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, a := ExtractQA(engine.Chunk{Content: tt.content})
			assert.Equal(t, tt.wantQ, q)
			assert.Equal(t, tt.wantA, a)
		})
	}
}

func TestExtractQASplitFields(t *testing.T) {
	q, a := ExtractQA(engine.Chunk{
		Content:           "The invoice is generated on the first business day.",
		ContentWithWeight: "When are invoices generated?",
	})
	assert.Equal(t, "When are invoices generated?", q)
	assert.Equal(t, "The invoice is generated on the first business day.", a)
}

func TestExtractQASplitFieldRejections(t *testing.T) {
	// Identical secondary field carries no extra information.
	q, a := ExtractQA(engine.Chunk{Content: "same text", ContentWithWeight: "same text"})
	assert.Empty(t, q)
	assert.Empty(t, a)

	// Multi-line secondary field is not a question.
	q, a = ExtractQA(engine.Chunk{Content: "answer body", ContentWithWeight: "line one\nline two"})
	assert.Empty(t, q)
	assert.Empty(t, a)

	// A labeled secondary field means the formats got crossed; skip it.
	q, a = ExtractQA(engine.Chunk{Content: "answer body", ContentWithWeight: "Question: crossed"})
	assert.Empty(t, q)
	assert.Empty(t, a)
}

func TestExtractQACombined(t *testing.T) {
	q, a := ExtractQA(engine.Chunk{Content: `"What is a ""dataset""?","A remote container of documents."`})
	assert.Equal(t, `What is a "dataset"?`, q)
	assert.Equal(t, "A remote container of documents.", a)

	q, a = ExtractQA(engine.Chunk{Content: "Where is the office?\nSecond floor, building B."})
	assert.Equal(t, "Where is the office?", q)
	assert.Equal(t, "Second floor, building B.", a)
}

func TestExtractQAPrecedence(t *testing.T) {
	// The labeled parser wins even when a secondary field is present.
	q, a := ExtractQA(engine.Chunk{
		Content:           "Question: labeled q\tAnswer: labeled a",
		ContentWithWeight: "secondary q",
	})
	assert.Equal(t, "labeled q", q)
	assert.Equal(t, "labeled a", a)

	// The split-field parser wins over the combined fallback.
	q, a = ExtractQA(engine.Chunk{
		Content:           "first line\nsecond line",
		ContentWithWeight: "secondary q",
	})
	assert.Equal(t, "first line\nsecond line", a)
	assert.Equal(t, "secondary q", q)
}

func TestExtractQAFailures(t *testing.T) {
	for _, content := range []string{
		"",
		"   ",
		"single line without any structure",
		"Answer: answer without a question",
		"Question: question without an answer",
	} {
		q, a := ExtractQA(engine.Chunk{Content: content})
		assert.Empty(t, q, "content %q", content)
		assert.Empty(t, a, "content %q", content)
	}
}
