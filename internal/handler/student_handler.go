package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/response"
)

type studentService interface {
	Get(ctx context.Context, id string) (*models.Student, error)
	UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*models.Student, error)
	Delete(ctx context.Context, id string) (*dto.DeleteStudentResult, error)
}

// StudentHandler exposes the per-student profile endpoints used by the game client.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler builds a new handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Get godoc
// @Summary Get a student, creating a default profile on first lookup
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 503 {object} response.ErrorEnvelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Update godoc
// @Summary Update a student's name or class
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.Student
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	student, err := h.service.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Delete godoc
// @Summary Delete a student and all of its progress
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} dto.DeleteStudentResult
// @Failure 404 {object} response.ErrorEnvelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	result, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
