package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/internal/repository"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	applog "github.com/noah-isme/playtrack-api/pkg/logger"
	"github.com/noah-isme/playtrack-api/pkg/validation"
)

type studentRepository interface {
	FindByStudentID(ctx context.Context, id string) (*models.Student, error)
	GetOrCreate(ctx context.Context, defaults *models.Student) (*models.Student, bool, error)
	Create(ctx context.Context, student *models.Student) error
	Mutate(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]models.Student, error)
	TopByHighScore(ctx context.Context, limit int) ([]models.Student, error)
}

// StudentServiceConfig tunes student use-cases.
type StudentServiceConfig struct {
	DefaultClass    string
	LeaderboardSize int
	StoreTimeout    time.Duration
	CacheTTL        time.Duration
}

// StudentService handles profile, roster and leaderboard use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validation.Validator, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultClass == "" {
		cfg.DefaultClass = "Fun Class"
	}
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// Get returns the student with id, creating a default profile on first lookup.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	id, err := s.studentID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	student, created, err := s.repo.GetOrCreate(ctx, models.NewStudent(id, models.DefaultName(id), s.cfg.DefaultClass, time.Time{}))
	if err != nil {
		return nil, storeError(err, "failed to load student")
	}
	if created {
		applog.FromContext(ctx, s.logger).Info("student created on lookup", zap.String("student_id", id))
		invalidateReads(ctx, s.cache)
	}
	return student, nil
}

// Create registers a new student; the id must be unused.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Class = strings.TrimSpace(req.Class)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if _, err := s.repo.FindByStudentID(ctx, req.StudentID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, storeError(err, "failed to validate student id")
	}

	student := models.NewStudent(req.StudentID, req.Name, req.Class, time.Time{})
	if err := s.repo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateStudent) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
		}
		return nil, storeError(err, "failed to create student")
	}
	applog.FromContext(ctx, s.logger).Info("student registered", zap.String("student_id", student.StudentID))
	invalidateReads(ctx, s.cache)
	return student, nil
}

// UpdateProfile overwrites the supplied profile fields of an existing student.
func (s *StudentService) UpdateProfile(ctx context.Context, id string, req dto.UpdateProfileRequest) (*models.Student, error) {
	id, err := s.studentID(id)
	if err != nil {
		return nil, err
	}
	if req.Name == nil && req.Class == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name or class is required")
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		req.Name = &trimmed
	}
	if req.Class != nil {
		trimmed := strings.TrimSpace(*req.Class)
		if trimmed == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class cannot be empty")
		}
		req.Class = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	student, err := s.repo.Mutate(ctx, id, func(st *models.Student) error {
		if req.Name != nil {
			st.Name = *req.Name
		}
		if req.Class != nil {
			st.Class = *req.Class
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storeError(err, "failed to update student")
	}
	invalidateReads(ctx, s.cache)
	return student, nil
}

// Delete removes a student together with its badges and play time. The result
// carries the normalized id that was removed.
func (s *StudentService) Delete(ctx context.Context, id string) (*dto.DeleteStudentResult, error) {
	id, err := s.studentID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
	defer cancel()

	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to delete student")
	}
	if !existed {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	applog.FromContext(ctx, s.logger).Info("student deleted", zap.String("student_id", id))
	invalidateReads(ctx, s.cache)
	return &dto.DeleteStudentResult{Deleted: true, StudentID: id}, nil
}

// List returns every student ordered by name.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	return readThrough(ctx, s.cache, s.cache.Key("students", "all"), s.cfg.CacheTTL, func(ctx context.Context) ([]models.Student, error) {
		ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
		defer cancel()
		students, err := s.repo.List(ctx)
		if err != nil {
			return nil, storeError(err, "failed to list students")
		}
		return students, nil
	})
}

// Leaderboard returns the top students by high score.
func (s *StudentService) Leaderboard(ctx context.Context) ([]models.Student, error) {
	key := s.cache.Key("leaderboard", strconv.Itoa(s.cfg.LeaderboardSize))
	return readThrough(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) ([]models.Student, error) {
		ctx, cancel := storeContext(ctx, s.cfg.StoreTimeout)
		defer cancel()
		students, err := s.repo.TopByHighScore(ctx, s.cfg.LeaderboardSize)
		if err != nil {
			return nil, storeError(err, "failed to load leaderboard")
		}
		return students, nil
	})
}

func (s *StudentService) studentID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if err := s.validator.Var("studentId", id, "required,max=64"); err != nil {
		return "", err
	}
	return id, nil
}

// storeContext bounds a store round trip so a stalled backend surfaces as
// STORE_UNAVAILABLE instead of hanging the request.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError classifies a repository failure. Rows the store refuses are a
// server fault, not a reason for the client to retry.
func storeError(err error, message string) error {
	if errors.Is(err, repository.ErrInvalidRecord) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
}

// invalidateReads drops cached leaderboard and roster payloads after a write.
func invalidateReads(ctx context.Context, cache *CacheService) {
	cache.InvalidateAll(ctx)
}
