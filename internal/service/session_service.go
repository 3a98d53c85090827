package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	applog "github.com/noah-isme/playtrack-api/pkg/logger"
	"github.com/noah-isme/playtrack-api/pkg/validation"
)

type sessionRepository interface {
	Mutate(ctx context.Context, id string, fn func(*models.Student) error) (*models.Student, error)
}

// SessionService applies completed-game reports to student records.
type SessionService struct {
	repo      sessionRepository
	policy    *BadgePolicy
	cache     *CacheService
	metrics   *MetricsService
	validator *validation.Validator
	logger    *zap.Logger
	timeout   time.Duration
}

// NewSessionService constructs the session processor.
func NewSessionService(repo sessionRepository, policy *BadgePolicy, cache *CacheService, metrics *MetricsService, validate *validation.Validator, logger *zap.Logger, storeTimeout time.Duration) *SessionService {
	if policy == nil {
		policy = DefaultBadgePolicy()
	}
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:      repo,
		policy:    policy,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		timeout:   storeTimeout,
	}
}

// Process records one finished game for a student: it bumps the session
// counter, raises the high score, accumulates play time and awards a badge
// when the policy allows. The whole update happens under the student's row
// lock so concurrent reports cannot both award the same game's badge.
func (s *SessionService) Process(ctx context.Context, report dto.SessionReport) (*dto.SessionResult, error) {
	report.StudentID = strings.TrimSpace(report.StudentID)
	if err := s.validator.Struct(report); err != nil {
		return nil, err
	}
	game, score := *report.GameNum, *report.Score

	ctx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	var newBadge *models.Badge
	student, err := s.repo.Mutate(ctx, report.StudentID, func(st *models.Student) error {
		newBadge = nil
		st.Sessions++
		st.RecordScore(score)
		st.AddTimeSpent(game, report.TimeSpent)
		if badge := s.policy.Evaluate(st, game, score); badge != nil && st.AwardBadge(*badge) {
			newBadge = badge
		}
		st.RecomputeOverallScore()
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, storeError(err, "failed to record session")
	}

	s.metrics.RecordSession(game, newBadge != nil)
	log := applog.FromContext(ctx, s.logger)
	log.Debug("session recorded",
		zap.String("student_id", student.StudentID),
		zap.Int("game", game),
		zap.Int("score", score),
		zap.Int("misses", report.Misses),
		zap.Int64("time_spent_ms", report.TimeSpent),
	)
	if newBadge != nil {
		log.Info("badge awarded",
			zap.String("student_id", student.StudentID),
			zap.Int("game", newBadge.Game),
			zap.Int("score", newBadge.Score),
			zap.String("type", newBadge.Type),
		)
	}
	invalidateReads(ctx, s.cache)

	return &dto.SessionResult{Student: student, NewBadge: newBadge}, nil
}
