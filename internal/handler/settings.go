package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JerryYuan4733/ragflow-tyh/internal/config"
	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
)

// SettingsHandler lets an administrator repoint the engine connection at
// runtime without a restart.
type SettingsHandler struct {
	settings *config.EngineSettings
	client   *engine.Client
	logger   *slog.Logger
}

func NewSettingsHandler(settings *config.EngineSettings, client *engine.Client) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		client:   client,
		logger:   slog.Default().With("handler", "settings"),
	}
}

type engineSettingsRequest struct {
	BaseURL string `json:"base_url" binding:"required"`
	APIKey  string `json:"api_key" binding:"required"`
}

func (h *SettingsHandler) GetEngineSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"base_url": h.settings.BaseURL()})
}

// UpdateEngineSettings validates the new endpoint with a probe request
// before committing it.
func (h *SettingsHandler) UpdateEngineSettings(c *gin.Context) {
	var req engineSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	previousURL, previousKey := h.settings.BaseURL(), h.settings.APIKey()
	h.settings.Reload(req.BaseURL, req.APIKey)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if _, err := h.client.ListDatasets(ctx, 1, 1); err != nil {
		h.settings.Reload(previousURL, previousKey)
		h.logger.Warn("engine settings probe failed", "base_url", req.BaseURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "engine unreachable with provided settings"})
		return
	}

	h.logger.Info("engine settings updated", "base_url", req.BaseURL)
	c.JSON(http.StatusOK, gin.H{"message": "engine settings updated"})
}
