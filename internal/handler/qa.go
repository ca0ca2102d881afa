package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
	"github.com/JerryYuan4733/ragflow-tyh/internal/xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QAHandler struct {
	svc    *service.QAService
	logger *slog.Logger
}

func NewQAHandler(svc *service.QAService) *QAHandler {
	return &QAHandler{svc: svc, logger: slog.Default().With("handler", "qa")}
}

type createQARequest struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

type updateQARequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

type changeStatusRequest struct {
	Status model.QAStatus `json:"status" binding:"required"`
}

func (h *QAHandler) List(c *gin.Context) {
	opts := repository.ListOptions{
		Keyword:   c.Query("keyword"),
		DatasetID: c.Query("dataset_id"),
		Status:    c.Query("status"),
		Source:    c.Query("source"),
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		opts.Offset = v
	}

	records, total, err := h.svc.List(c.Request.Context(), currentTeamID(c), opts)
	if err != nil {
		h.logger.Error("list qa records failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list qa records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records, "total": total})
}

func (h *QAHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	record, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "qa record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load qa record"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *QAHandler) Create(c *gin.Context) {
	var req createQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.svc.Create(c.Request.Context(), currentTeamID(c), currentUserID(c), req.Question, req.Answer)
	if err != nil {
		var dup *service.DuplicateError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "duplicate question",
				"duplicate": dup.Result,
			})
			return
		}
		h.logger.Error("create qa record failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create qa record"})
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *QAHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Question == nil && req.Answer == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	record, err := h.svc.Update(c.Request.Context(), id, currentUserID(c), req.Question, req.Answer)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "qa record not found"})
			return
		}
		h.logger.Error("update qa record failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update qa record"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *QAHandler) ChangeStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case model.QAStatusActive, model.QAStatusPendingReview, model.QAStatusDisabled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	if err := h.svc.ChangeStatus(c.Request.Context(), id, currentUserID(c), req.Status); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "qa record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to change status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *QAHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "qa record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete qa record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Import accepts an xlsx upload with question and answer columns.
func (h *QAHandler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	rows, err := xlsx.ParseQARows(content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid xlsx file"})
		return
	}

	created, skipped, err := h.svc.Import(c.Request.Context(), currentTeamID(c), currentUserID(c), rows)
	if err != nil {
		h.logger.Error("import failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created, "skipped": skipped})
}

// Template serves an empty import workbook with the expected header row.
func (h *QAHandler) Template(c *gin.Context) {
	data, err := xlsx.BuildTemplate()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build template"})
		return
	}
	name := fmt.Sprintf("qa_import_template_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
