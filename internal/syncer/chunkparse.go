package syncer

import (
	"strings"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
)

// ExtractQA pulls the question and answer out of a remote chunk. The engine
// has rendered QA chunks differently across versions, so parsing is an
// ordered chain and the precedence must not change:
//
//  1. labeled content: "Question: <q> ... Answer: <a>"
//  2. split fields: secondary field holds the question, primary the answer
//  3. combined fallback: CSV-quoted pair, or first-newline split
//
// Returns ("", "") when no strategy matches.
func ExtractQA(chunk engine.Chunk) (string, string) {
	content := strings.TrimSpace(chunk.Content)
	if content == "" {
		return "", ""
	}

	if q, a := parseLabeled(content); q != "" && a != "" {
		return q, a
	}

	secondary := strings.TrimSpace(chunk.ContentWithWeight)
	if secondary != "" &&
		secondary != content &&
		!strings.Contains(secondary, "\n") &&
		!strings.HasPrefix(strings.ToLower(secondary), "question:") {
		return secondary, content
	}

	if q, a := parseCombined(content); q != "" && a != "" {
		return q, a
	}

	return "", ""
}

// parseLabeled splits on a case-insensitive "Answer:" marker and strips an
// optional leading "Question:" label. Tab, space, and newline separators all
// reduce to this one search.
func parseLabeled(content string) (string, string) {
	lower := strings.ToLower(content)
	idx := strings.Index(lower, "answer:")
	if idx == -1 {
		return "", ""
	}

	q := strings.TrimSpace(content[:idx])
	a := strings.TrimSpace(content[idx+len("answer:"):])

	if strings.HasPrefix(strings.ToLower(q), "question:") {
		q = strings.TrimSpace(q[len("question:"):])
	}
	if q == "" || a == "" {
		return "", ""
	}
	return q, a
}

// parseCombined handles the fallback shapes: a CSV-quoted `"q","a"` pair
// (doubled quotes unescaped) or a plain two-line split.
func parseCombined(content string) (string, string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ""
	}

	if strings.HasPrefix(content, `"`) && strings.Contains(content, `","`) {
		parts := strings.SplitN(content, `","`, 2)
		q := strings.ReplaceAll(strings.TrimPrefix(parts[0], `"`), `""`, `"`)
		a := ""
		if len(parts) > 1 {
			a = strings.ReplaceAll(strings.TrimSuffix(parts[1], `"`), `""`, `"`)
		}
		return strings.TrimSpace(q), strings.TrimSpace(a)
	}

	if i := strings.Index(content, "\n"); i >= 0 {
		return strings.TrimSpace(content[:i]), strings.TrimSpace(content[i+1:])
	}

	return "", ""
}
