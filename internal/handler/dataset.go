package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
)

type DatasetHandler struct {
	svc    *service.TeamDatasetService
	client *engine.Client
	logger *slog.Logger
}

func NewDatasetHandler(svc *service.TeamDatasetService, client *engine.Client) *DatasetHandler {
	return &DatasetHandler{svc: svc, client: client, logger: slog.Default().With("handler", "dataset")}
}

type bindDatasetRequest struct {
	DatasetID   string `json:"dataset_id" binding:"required"`
	DatasetName string `json:"dataset_name" binding:"required"`
}

// ListBound returns the datasets bound to the caller's team.
func (h *DatasetHandler) ListBound(c *gin.Context) {
	bindings, err := h.svc.ListByTeam(c.Request.Context(), currentTeamID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list datasets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": bindings})
}

// ListRemote lists datasets known to the engine, for the binding picker.
func (h *DatasetHandler) ListRemote(c *gin.Context) {
	datasets, err := h.client.ListDatasets(c.Request.Context(), 1, 100)
	if err != nil {
		h.logger.Error("list remote datasets failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "engine unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": datasets})
}

func (h *DatasetHandler) Bind(c *gin.Context) {
	var req bindDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	binding := &model.TeamDataset{
		TeamID:      currentTeamID(c),
		DatasetID:   req.DatasetID,
		DatasetName: req.DatasetName,
	}
	if err := h.svc.Bind(c.Request.Context(), binding); err != nil {
		h.logger.Error("bind dataset failed", "dataset_id", req.DatasetID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to bind dataset"})
		return
	}
	c.JSON(http.StatusCreated, binding)
}

func (h *DatasetHandler) Unbind(c *gin.Context) {
	datasetID := c.Param("datasetId")
	if datasetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset id is required"})
		return
	}
	if err := h.svc.Unbind(c.Request.Context(), currentTeamID(c), datasetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unbind dataset"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unbound"})
}
