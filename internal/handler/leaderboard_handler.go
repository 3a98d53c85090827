package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/pkg/response"
)

type leaderboardService interface {
	Leaderboard(ctx context.Context) ([]models.Student, error)
}

// LeaderboardHandler serves read-only ranking and catalogue data.
type LeaderboardHandler struct {
	service leaderboardService
}

// NewLeaderboardHandler builds a new handler.
func NewLeaderboardHandler(service leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Top godoc
// @Summary Top students by high score
// @Tags Leaderboard
// @Produce json
// @Success 200 {array} models.Student
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Top(c *gin.Context) {
	students, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	response.JSON(c, http.StatusOK, students)
}

// Games godoc
// @Summary List the game catalogue
// @Tags Leaderboard
// @Produce json
// @Success 200 {array} models.Game
// @Router /games [get]
func (h *LeaderboardHandler) Games(c *gin.Context) {
	response.JSON(c, http.StatusOK, models.GameCatalogue)
}
