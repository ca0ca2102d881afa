package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ListAssistants lists the engine's chat assistants.
func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	data, err := c.request(ctx, http.MethodGet, "/chats", nil, nil)
	if err != nil {
		return nil, err
	}
	var assistants []Assistant
	if err := json.Unmarshal(data, &assistants); err != nil {
		return nil, fmt.Errorf("decode assistants: %w", err)
	}
	return assistants, nil
}

func (c *Client) CreateSession(ctx context.Context, chatID, name string) (*Session, error) {
	data, err := c.request(ctx, http.MethodPost, "/chats/"+chatID+"/sessions",
		map[string]any{"name": name}, nil)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (c *Client) DeleteSession(ctx context.Context, chatID, sessionID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/chats/"+chatID+"/sessions",
		map[string]any{"ids": []string{sessionID}}, nil)
	return err
}

// CompletionStream runs a streamed chat completion, invoking fn for every
// answer fragment. The engine ends the stream with data=true (or a [DONE]
// line on some versions); fn receives a final chunk carrying the last
// reference before CompletionStream returns.
func (c *Client) CompletionStream(ctx context.Context, chatID, sessionID, question string, fn func(CompletionChunk) error) error {
	body, err := json.Marshal(map[string]any{
		"question":   question,
		"session_id": sessionID,
		"stream":     true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.settings.BaseURL()+"/chats/"+chatID+"/completions", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine completion status %d", resp.StatusCode)
	}

	var lastReference map[string]any
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(line[len("data:"):])
		if payload == "[DONE]" {
			return fn(CompletionChunk{IsFinal: true, Reference: lastReference})
		}

		var frame struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			c.logger.Warn("completion frame decode failed", "error", err)
			continue
		}
		// data=true marks the end of the stream.
		if string(frame.Data) == "true" {
			return fn(CompletionChunk{IsFinal: true, Reference: lastReference})
		}

		var chunk struct {
			Answer    string         `json:"answer"`
			Reference map[string]any `json:"reference"`
		}
		if err := json.Unmarshal(frame.Data, &chunk); err != nil {
			continue
		}
		if chunk.Reference != nil {
			lastReference = chunk.Reference
		}
		if chunk.Answer != "" {
			if err := fn(CompletionChunk{Answer: chunk.Answer}); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fn(CompletionChunk{IsFinal: true, Reference: lastReference})
}
