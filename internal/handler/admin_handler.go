package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/internal/service"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/response"
)

type rosterService interface {
	Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error)
	List(ctx context.Context) ([]models.Student, error)
}

type rosterExporter interface {
	Roster(ctx context.Context, format dto.ExportFormat) (*service.ExportFile, error)
}

// AdminHandler exposes roster management for the admin table.
type AdminHandler struct {
	roster   rosterService
	exporter rosterExporter
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(roster rosterService, exporter rosterExporter) *AdminHandler {
	return &AdminHandler{roster: roster, exporter: exporter}
}

// Create godoc
// @Summary Register a student
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student payload"
// @Success 201 {object} models.Student
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 409 {object} response.ErrorEnvelope
// @Router /admin/students [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.roster.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// List godoc
// @Summary List every student ordered by name
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Student
// @Router /admin/students [get]
func (h *AdminHandler) List(c *gin.Context) {
	students, err := h.roster.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	response.JSON(c, http.StatusOK, students)
}

// Export godoc
// @Summary Download the roster
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorEnvelope
// @Router /admin/students/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	file, err := h.exporter.Roster(c.Request.Context(), dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
