package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/export"
	applog "github.com/noah-isme/playtrack-api/pkg/logger"
)

type rosterSource interface {
	List(ctx context.Context) ([]models.Student, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// ExportFile is a rendered roster ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the admin roster as a downloadable file.
type ExportService struct {
	roster    rosterSource
	renderers map[dto.ExportFormat]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(roster rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		roster:    roster,
		renderers: map[dto.ExportFormat]renderer{
			dto.ExportFormatCSV: export.NewCSVExporter(),
			dto.ExportFormatPDF: export.NewPDFExporter("playtrack roster"),
		},
		logger: logger,
		now:    time.Now,
	}
}

var rosterColumns = []export.Column{
	{Key: "studentId", Header: "Student ID", Width: 2},
	{Key: "name", Header: "Name", Width: 3},
	{Key: "class", Header: "Class", Width: 2},
	{Key: "sessions", Header: "Sessions", Width: 1, Align: "R"},
	{Key: "badges", Header: "Badges", Width: 1, Align: "R"},
	{Key: "highScore", Header: "High Score", Width: 1.2, Align: "R"},
	{Key: "overallScore", Header: "Overall Score", Width: 1.3, Align: "R"},
	{Key: "timePlayed", Header: "Time Played", Width: 1.5, Align: "R"},
}

// Roster renders every student in the requested format.
func (s *ExportService) Roster(ctx context.Context, format dto.ExportFormat) (*ExportFile, error) {
	format = dto.ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = dto.ExportFormatCSV
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	students, err := s.roster.List(ctx)
	if err != nil {
		return nil, err
	}

	generated := s.now()
	dataset := export.Dataset{
		Title:   "Student Roster " + generated.Format("2006-01-02"),
		Columns: rosterColumns,
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, st := range students {
		dataset.Rows = append(dataset.Rows, rosterRow(st))
	}

	body, err := r.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	applog.FromContext(ctx, s.logger).Info("roster exported", zap.String("format", string(format)), zap.Int("students", len(students)))

	return &ExportFile{
		Filename:    fmt.Sprintf("roster-%s.%s", generated.Format("20060102-150405"), format),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func rosterRow(st models.Student) map[string]string {
	var played int64
	for _, ms := range st.TimeSpent {
		played += ms
	}
	return map[string]string{
		"studentId":    st.StudentID,
		"name":         st.Name,
		"class":        st.Class,
		"sessions":     strconv.Itoa(st.Sessions),
		"badges":       strconv.Itoa(len(st.Badges)),
		"highScore":    strconv.Itoa(st.HighScore),
		"overallScore": strconv.Itoa(st.OverallScore),
		"timePlayed":   formatPlayTime(played),
	}
}

// formatPlayTime renders milliseconds as h:mm:ss.
func formatPlayTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int64(d / time.Hour)
	m := int64(d%time.Hour) / int64(time.Minute)
	sec := int64(d%time.Minute) / int64(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}
