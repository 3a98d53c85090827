package service

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/internal/repository"
	"github.com/noah-isme/playtrack-api/pkg/config"
	"github.com/noah-isme/playtrack-api/pkg/database"
	appErrors "github.com/noah-isme/playtrack-api/pkg/errors"
	"github.com/noah-isme/playtrack-api/pkg/validation"
)

func intPtr(v int) *int { return &v }

func report(id string, game, score int, timeSpent int64) dto.SessionReport {
	return dto.SessionReport{StudentID: id, GameNum: intPtr(game), Score: intPtr(score), TimeSpent: timeSpent}
}

func newSessionSvc(repo sessionRepository, metrics *MetricsService) *SessionService {
	policy := DefaultBadgePolicy().WithClock(fixedClock)
	return NewSessionService(repo, policy, nil, metrics, validation.New(), zap.NewNop(), time.Second)
}

func TestSessionServiceFirstSessionAwardsBadge(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("0440000001", "Student 0440000001", "Fun Class", time.Now()))
	metrics := NewMetricsService()
	svc := newSessionSvc(repo, metrics)

	in := report("0440000001", 1, 30, 12000)
	in.Misses = 2
	result, err := svc.Process(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Student.Sessions)
	assert.Equal(t, 30, result.Student.HighScore)
	assert.Len(t, result.Student.Badges, 1)
	require.NotNil(t, result.NewBadge)
	assert.Equal(t, 1, result.NewBadge.Game)
	assert.Equal(t, 30, result.NewBadge.Score)
	assert.Equal(t, "2024-05-01", result.NewBadge.Date)
	assert.Equal(t, 30, result.Student.OverallScore)
	assert.Equal(t, int64(12000), result.Student.TimeSpent["1"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.sessionsProcessed))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.badgesAwarded.WithLabelValues("1")))
}

func TestSessionServiceSecondHighScoreDoesNotReaward(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)
	ctx := context.Background()

	first, err := svc.Process(ctx, report("s-1", 4, 21, 0))
	require.NoError(t, err)
	require.NotNil(t, first.NewBadge)
	assert.Equal(t, 21, first.Student.OverallScore)

	second, err := svc.Process(ctx, report("s-1", 4, 25, 0))
	require.NoError(t, err)
	assert.Nil(t, second.NewBadge)
	assert.Equal(t, 25, second.Student.HighScore)
	require.Len(t, second.Student.Badges, 1)
	assert.Equal(t, 21, second.Student.Badges[0].Score)
	assert.Equal(t, 21, second.Student.OverallScore)
}

func TestSessionServiceAccumulatesTimeSpent(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Process(context.Background(), report("s-1", 3, 5, 5000))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(10000), repo.students["s-1"].TimeSpent["3"])
}

func TestSessionServiceCountsSessionsAndTracksMax(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)

	scores := []int{4, 19, 12, 7, 18}
	for i, score := range scores {
		_, err := svc.Process(context.Background(), report("s-1", i+1, score, 100))
		require.NoError(t, err)
	}
	stored := repo.students["s-1"]
	assert.Equal(t, len(scores), stored.Sessions)
	assert.Equal(t, 19, stored.HighScore)
	assert.Empty(t, stored.Badges)
	assert.Zero(t, stored.OverallScore)
}

func TestSessionServiceOverallScoreRoundsHalfUp(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)

	_, err := svc.Process(context.Background(), report("s-1", 1, 21, 0))
	require.NoError(t, err)
	result, err := svc.Process(context.Background(), report("s-1", 2, 22, 0))
	require.NoError(t, err)

	assert.Len(t, result.Student.Badges, 2)
	assert.Equal(t, 22, result.Student.OverallScore)
}

func TestSessionServiceMissingStudent(t *testing.T) {
	svc := newSessionSvc(newMockStudentRepo(), nil)

	_, err := svc.Process(context.Background(), report("ghost", 1, 30, 0))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionServiceRejectsMalformedReports(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)

	cases := map[string]dto.SessionReport{
		"missing game":    {StudentID: "s-1", Score: intPtr(10)},
		"missing score":   {StudentID: "s-1", GameNum: intPtr(1)},
		"negative score":  report("s-1", 1, -1, 0),
		"zero game":       report("s-1", 0, 10, 0),
		"negative time":   report("s-1", 1, 10, -5),
		"blank student":   report("  ", 1, 10, 0),
		"score too big":   report("s-1", 1, math.MaxInt32+1, 0),
		"time over a day": report("s-1", 1, 10, int64(24*time.Hour/time.Millisecond)+1),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Process(context.Background(), in)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
	assert.Zero(t, repo.students["s-1"].Sessions)
}

func TestSessionServiceStoreFailure(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	repo.err = context.DeadlineExceeded
	svc := newSessionSvc(repo, nil)

	_, err := svc.Process(context.Background(), report("s-1", 1, 30, 0))
	assert.ErrorIs(t, err, appErrors.ErrUnavailable)
}

func TestSessionServiceRejectedRowIsInternal(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	repo.err = fmt.Errorf("update student: %w: check failed", repository.ErrInvalidRecord)
	svc := newSessionSvc(repo, nil)

	_, err := svc.Process(context.Background(), report("s-1", 1, 30, 0))
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	assert.NotErrorIs(t, err, appErrors.ErrUnavailable)
}

func TestSessionServiceInvalidatesCache(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	store := newMemoryCache()
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true, "pt")
	svc := NewSessionService(repo, nil, cache, nil, nil, nil, 0)

	_, err := svc.Process(context.Background(), report("s-1", 1, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"pt:*"}, store.invalidated)
}

func TestSessionServiceConcurrentReportsAwardOnce(t *testing.T) {
	repo := newMockStudentRepo(*models.NewStudent("s-1", "Ada", "Blue", time.Now()))
	svc := newSessionSvc(repo, nil)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	awarded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			result, err := svc.Process(context.Background(), report("s-1", 9, score, 10))
			if err != nil {
				t.Error(err)
				return
			}
			if result.NewBadge != nil {
				mu.Lock()
				awarded++
				mu.Unlock()
			}
		}(30 + i)
	}
	wg.Wait()

	stored := repo.students["s-1"]
	assert.Equal(t, 1, awarded)
	assert.Equal(t, workers, stored.Sessions)
	assert.Len(t, stored.Badges, 1)
	assert.Equal(t, 30+workers-1, stored.HighScore)
	assert.Equal(t, int64(10*workers), stored.TimeSpent["9"])
}

func newSQLiteRepo(t *testing.T) *repository.StudentRepository {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "flow.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.Migrate(context.Background(), db, nil)
	require.NoError(t, err)
	return repository.NewStudentRepository(db)
}

func TestSessionFlowAgainstSQLite(t *testing.T) {
	repo := newSQLiteRepo(t)
	students := NewStudentService(repo, nil, nil, nil, StudentServiceConfig{StoreTimeout: time.Second})
	sessions := newSessionSvc(repo, nil)
	ctx := context.Background()

	fresh, err := students.Get(ctx, "0440000001")
	require.NoError(t, err)
	assert.Equal(t, "Student 0440000001", fresh.Name)
	assert.Equal(t, "Fun Class", fresh.Class)

	in := report("0440000001", 1, 30, 12000)
	in.Misses = 2
	result, err := sessions.Process(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Student.Sessions)
	assert.Equal(t, 30, result.Student.OverallScore)
	require.NotNil(t, result.NewBadge)

	reloaded, err := students.Get(ctx, "0440000001")
	require.NoError(t, err)
	assert.Equal(t, result.Student.Badges, reloaded.Badges)
	assert.Equal(t, int64(12000), reloaded.TimeSpent["1"])

	_, err = students.Delete(ctx, "0440000001")
	require.NoError(t, err)
	recreated, err := students.Get(ctx, "0440000001")
	require.NoError(t, err)
	assert.Zero(t, recreated.Sessions)
	assert.Empty(t, recreated.Badges)
	assert.Empty(t, recreated.TimeSpent)
}

func TestSessionScoreBoundsAgainstSQLite(t *testing.T) {
	repo := newSQLiteRepo(t)
	students := NewStudentService(repo, nil, nil, nil, StudentServiceConfig{StoreTimeout: time.Second})
	sessions := newSessionSvc(repo, nil)
	ctx := context.Background()

	_, err := students.Get(ctx, "s-1")
	require.NoError(t, err)

	_, err = sessions.Process(ctx, report("s-1", 1, math.MaxInt64/2+1, 0))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = sessions.Process(ctx, report("s-1", 1, math.MaxInt32, 0))
	require.NoError(t, err)
	result, err := sessions.Process(ctx, report("s-1", 2, math.MaxInt32, 0))
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, result.Student.HighScore)
	assert.Equal(t, math.MaxInt32, result.Student.OverallScore)
	assert.Equal(t, 2, result.Student.Sessions)
}
