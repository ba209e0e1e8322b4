package handler

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-results/internal/export"
	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/response"
	"github.com/stemsi/exstem-results/internal/service"
	"github.com/stemsi/exstem-results/internal/validator"
)

// ResultHandler handles result listing, export and score editing.
type ResultHandler struct {
	resultService *service.ResultService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService) *ResultHandler {
	return &ResultHandler{resultService: resultService}
}

// parseFilter reads ?class=&subject=&exam_type=&exam_id= from the query.
// A malformed exam_id is reported as false.
func parseFilter(c *gin.Context) (model.ResultFilter, bool) {
	filter := model.ResultFilter{
		ClassName:   strings.TrimSpace(c.Query("class")),
		SubjectName: strings.TrimSpace(c.Query("subject")),
		ExamType:    strings.TrimSpace(c.Query("exam_type")),
	}
	if raw := c.Query("exam_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, false
		}
		filter.ExamID = &id
	}
	return filter, true
}

// ListResults godoc
// GET /api/v1/admin/results?class=&subject=&exam_type=&exam_id=
// Lists reconciled results, newest first.
func (h *ResultHandler) ListResults(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	rows, err := h.resultService.List(c.Request.Context(), filter)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": rows, "count": len(rows)})
}

// ExportResults godoc
// GET /api/v1/admin/results/export?class=&subject=&exam_type=&exam_id=
// Downloads the filtered results as tab-separated CSV.
func (h *ResultHandler) ExportResults(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Render fully before writing so a failure can still become a JSON error.
	var buf bytes.Buffer
	if _, err := h.resultService.Export(c.Request.Context(), filter, &buf); err != nil {
		failWith(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// UpdateScore godoc
// PUT /api/v1/admin/results/:id/score
// Overrides a result's score from one field and returns the reconciled row.
func (h *ResultHandler) UpdateScore(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateScoreRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	row, err := h.resultService.UpdateScore(c.Request.Context(), id, &req)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": row})
}

// DeleteResult godoc
// DELETE /api/v1/admin/results/:id
func (h *ResultHandler) DeleteResult(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.resultService.Delete(c.Request.Context(), id); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "result deleted successfully"})
}
