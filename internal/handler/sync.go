package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

type SyncHandler struct {
	svc    *service.SyncService
	logger *slog.Logger
}

func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc, logger: slog.Default().With("handler", "sync")}
}

type pushRequest struct {
	// TargetDatasetID receives records that are not yet bound to a dataset.
	TargetDatasetID string      `json:"target_dataset_id"`
	IDs             []uuid.UUID `json:"ids"`
}

type pullRequest struct {
	// DatasetID limits the pull to one dataset; empty pulls every bound one.
	DatasetID string `json:"dataset_id"`
}

func (h *SyncHandler) Push(c *gin.Context) {
	var req pushRequest
	// An empty body is a valid full push.
	_ = c.ShouldBindJSON(&req)

	summary, err := h.svc.PushToEngine(c.Request.Context(), currentTeamID(c), req.TargetDatasetID, req.IDs)
	if err != nil {
		var target *syncer.TargetRequiredError
		if errors.As(err, &target) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "target dataset required for unassigned records",
				"unassigned": target.Unassigned,
			})
			return
		}
		h.logger.Error("push to engine failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sync to engine failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *SyncHandler) Pull(c *gin.Context) {
	var req pullRequest
	_ = c.ShouldBindJSON(&req)

	summary, err := h.svc.PullFromEngine(c.Request.Context(), currentTeamID(c), currentUserID(c), req.DatasetID)
	if err != nil {
		if errors.Is(err, service.ErrNoDatasets) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no datasets bound to team"})
			return
		}
		h.logger.Error("pull from engine failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sync from engine failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
