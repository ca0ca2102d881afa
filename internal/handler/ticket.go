package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
)

type TicketHandler struct {
	repo   *repository.TicketRepository
	logger *slog.Logger
}

func NewTicketHandler(repo *repository.TicketRepository) *TicketHandler {
	return &TicketHandler{repo: repo, logger: slog.Default().With("handler", "ticket")}
}

type ticketStatusRequest struct {
	Status model.TicketStatus `json:"status" binding:"required"`
}

func (h *TicketHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	tickets, total, err := h.repo.ListByTeam(c.Request.Context(), currentTeamID(c), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tickets, "total": total})
}

func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req ticketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case model.TicketStatusPending, model.TicketStatusProcessing,
		model.TicketStatusResolved, model.TicketStatusVerified:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if _, err := h.repo.FindByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ticket"})
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), id, req.Status, currentUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}
