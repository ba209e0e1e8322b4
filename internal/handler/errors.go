package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/repository"
	"github.com/stemsi/exstem-results/internal/response"
	"github.com/stemsi/exstem-results/internal/scoring"
	"github.com/stemsi/exstem-results/internal/service"
)

// failWith maps repository and service errors onto the API error envelope.
// Anything unrecognised is logged and reported as a 500.
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicate):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, repository.ErrInUse):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	case errors.Is(err, service.ErrInvalidExamType):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidExamType,
			map[string]string{"exam_type": err.Error()})
	case errors.Is(err, service.ErrMarksAboveMax):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrMarksAboveMax,
			map[string]string{"total_marks": err.Error()})
	case errors.Is(err, service.ErrReferenceNotFound):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"class_id": err.Error(), "subject_id": err.Error()})
	case errors.Is(err, service.ErrInvalidScoreEdit):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidScoreEdit,
			map[string]string{"value": err.Error()})
	case errors.Is(err, scoring.ErrLookupFailure):
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).
			Str("path", c.FullPath()).
			Msg("Exam lookup failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.FullPath()).
			Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramUUID parses the named path parameter, answering 400 on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
