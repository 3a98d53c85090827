package dto

import "github.com/noah-isme/playtrack-api/internal/models"

// CreateStudentRequest is the admin payload for registering a student.
type CreateStudentRequest struct {
	StudentID string `json:"studentId" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=120"`
	Class     string `json:"class" validate:"required,max=120"`
}

// UpdateProfileRequest carries the mutable profile fields. Omitted fields are
// left untouched.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Class *string `json:"class" validate:"omitempty,max=120"`
}

// SessionReport is sent by the client when a game ends. Numeric bounds match
// the store's 32-bit integer columns; timeSpent is capped at one day per game.
type SessionReport struct {
	StudentID string `json:"studentId" validate:"required,max=64"`
	GameNum   *int   `json:"gameNum" validate:"required,min=1,max=2147483647"`
	Score     *int   `json:"score" validate:"required,min=0,max=2147483647"`
	Misses    int    `json:"misses" validate:"min=0,max=2147483647"`
	TimeSpent int64  `json:"timeSpent" validate:"min=0,max=86400000"`
}

// SessionResult is returned after a report has been applied.
type SessionResult struct {
	Student  *models.Student `json:"student"`
	NewBadge *models.Badge   `json:"newBadge"`
}

// DeleteStudentResult acknowledges a removal.
type DeleteStudentResult struct {
	Deleted   bool   `json:"deleted"`
	StudentID string `json:"studentId"`
}

// ExportFormat selects the roster export renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)
