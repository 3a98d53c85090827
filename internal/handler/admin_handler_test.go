package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/internal/service"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
)

type rosterServiceMock struct {
	created   *models.Student
	createErr error
	list      []models.Student
	lastReq   dto.CreateStudentRequest
}

func (m *rosterServiceMock) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	m.lastReq = req
	return m.created, m.createErr
}

func (m *rosterServiceMock) List(ctx context.Context) ([]models.Student, error) {
	return m.list, nil
}

type exporterMock struct {
	format dto.ExportFormat
	err    error
}

func (m *exporterMock) Roster(ctx context.Context, format dto.ExportFormat) (*service.ExportFile, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "roster.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Student ID\n")}, nil
}

func adminRoutes(roster rosterService, exporter rosterExporter) *gin.Engine {
	r := newTestRouter()
	h := NewAdminHandler(roster, exporter)
	r.POST("/admin/students", h.Create)
	r.GET("/admin/students", h.List)
	r.GET("/admin/students/export", h.Export)
	return r
}

func TestAdminHandlerCreate(t *testing.T) {
	mockSvc := &rosterServiceMock{created: models.NewStudent("s-1", "Ada", "Blue", time.Time{})}

	w := perform(adminRoutes(mockSvc, nil), http.MethodPost, "/admin/students", `{"studentId":"s-1","name":"Ada","class":"Blue"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s-1", mockSvc.lastReq.StudentID)
}

func TestAdminHandlerCreateConflict(t *testing.T) {
	mockSvc := &rosterServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "student id already exists")}

	w := perform(adminRoutes(mockSvc, nil), http.MethodPost, "/admin/students", `{"studentId":"s-1","name":"Ada","class":"Blue"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))
}

func TestAdminHandlerCreateMalformed(t *testing.T) {
	w := perform(adminRoutes(&rosterServiceMock{}, nil), http.MethodPost, "/admin/students", `{"studentId":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandlerListEmpty(t *testing.T) {
	w := perform(adminRoutes(&rosterServiceMock{}, nil), http.MethodGet, "/admin/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAdminHandlerList(t *testing.T) {
	mockSvc := &rosterServiceMock{list: []models.Student{*models.NewStudent("a", "Amy", "X", time.Time{}), *models.NewStudent("z", "Zed", "X", time.Time{})}}

	w := perform(adminRoutes(mockSvc, nil), http.MethodGet, "/admin/students", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "Amy", body[0]["name"])
}

func TestAdminHandlerExport(t *testing.T) {
	exporter := &exporterMock{}

	w := perform(adminRoutes(&rosterServiceMock{}, exporter), http.MethodGet, "/admin/students/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportFormatCSV, exporter.format)
	assert.Equal(t, `attachment; filename="roster.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Student ID\n", w.Body.String())
}

func TestAdminHandlerExportUnsupported(t *testing.T) {
	exporter := &exporterMock{err: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}

	w := perform(adminRoutes(&rosterServiceMock{}, exporter), http.MethodGet, "/admin/students/export?format=xlsx", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ExportFormat("xlsx"), exporter.format)
}
