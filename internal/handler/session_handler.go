package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/dto"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/response"
)

type sessionService interface {
	Process(ctx context.Context, report dto.SessionReport) (*dto.SessionResult, error)
}

// SessionHandler accepts end-of-game reports.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create godoc
// @Summary Record a finished game session
// @Description Increments sessions, tracks high score and play time, and awards a badge when earned.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.SessionReport true "Session report"
// @Success 200 {object} dto.SessionResult
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Failure 503 {object} response.ErrorEnvelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var report dto.SessionReport
	if err := c.ShouldBindJSON(&report); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session report"))
		return
	}
	result, err := h.service.Process(c.Request.Context(), report)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
