package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
)

type TransferHandler struct {
	svc    *service.TransferService
	logger *slog.Logger
}

func NewTransferHandler(svc *service.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc, logger: slog.Default().With("handler", "transfer")}
}

type transferRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
}

// Transfer promotes a chat exchange into a pending-review QA record with a
// verification ticket.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Transfer(c.Request.Context(), currentTeamID(c), currentUserID(c), req.MessageID, req.Question, req.Answer)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyTransferred) {
			c.JSON(http.StatusConflict, gin.H{"error": "message already transferred"})
			return
		}
		var dup *service.DuplicateError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate question", "duplicate": dup.Result})
			return
		}
		h.logger.Error("transfer failed", "message_id", req.MessageID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transfer failed"})
		return
	}
	c.JSON(http.StatusCreated, result)
}
