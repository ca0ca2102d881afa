package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
)

type ChatHandler struct {
	svc    *service.ChatService
	client *engine.Client
	logger *slog.Logger
}

func NewChatHandler(svc *service.ChatService, client *engine.Client) *ChatHandler {
	return &ChatHandler{svc: svc, client: client, logger: slog.Default().With("handler", "chat")}
}

type bindAssistantRequest struct {
	AssistantID string `json:"assistant_id" binding:"required"`
}

type startSessionRequest struct {
	Name string `json:"name"`
}

type completionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
}

func (h *ChatHandler) ListAssistants(c *gin.Context) {
	assistants, err := h.client.ListAssistants(c.Request.Context())
	if err != nil {
		h.logger.Error("list assistants failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "engine unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": assistants})
}

func (h *ChatHandler) BindAssistant(c *gin.Context) {
	var req bindAssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.svc.BindAssistant(c.Request.Context(), currentTeamID(c), req.AssistantID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "assistant not found on engine"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to bind assistant"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *ChatHandler) StartSession(c *gin.Context) {
	var req startSessionRequest
	_ = c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "knowledge session"
	}

	session, err := h.svc.StartSession(c.Request.Context(), currentTeamID(c), req.Name)
	if err != nil {
		if errors.Is(err, service.ErrNoAssistant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no assistant bound to team"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *ChatHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.svc.EndSession(c.Request.Context(), currentTeamID(c), sessionID); err != nil {
		if errors.Is(err, service.ErrNoAssistant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no assistant bound to team"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}

// Completion relays the engine's answer stream as server-sent events.
func (h *ChatHandler) Completion(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, _ := c.Writer.(http.Flusher)
	err := h.svc.Ask(c.Request.Context(), currentTeamID(c), req.SessionID, req.Question, func(chunk engine.CompletionChunk) error {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := c.Writer.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, service.ErrNoAssistant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no assistant bound to team"})
			return
		}
		h.logger.Error("completion stream failed", "session_id", req.SessionID, "error", err)
		// Headers are already on the wire; end the stream.
		return
	}
	c.Writer.Write([]byte("data: [DONE]\n\n"))
	if flusher != nil {
		flusher.Flush()
	}
}
