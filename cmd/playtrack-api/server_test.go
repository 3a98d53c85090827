package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/playtrack-api/internal/dto"
	"github.com/noah-isme/playtrack-api/internal/models"
	"github.com/noah-isme/playtrack-api/pkg/config"
	"github.com/noah-isme/playtrack-api/pkg/database"
)

func testServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api",
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "server.db"),
			Timeout:    2 * time.Second,
		},
		Badges:      config.BadgeConfig{ScoreThreshold: 20, LabelFormat: "Master of %s", Timezone: "UTC"},
		Leaderboard: config.LeaderboardConfig{Size: 10},
		Students:    config.StudentConfig{DefaultClass: "Fun Class"},
	}
	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.Migrate(context.Background(), db, nil)
	require.NoError(t, err)

	router, err := newRouter(cfg, zap.NewNop(), db, nil)
	require.NoError(t, err)
	return router
}

func call(t *testing.T, h http.Handler, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	if payload != nil {
		require.NoError(t, json.NewEncoder(body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestServerSessionFlow(t *testing.T) {
	srv := testServer(t)

	w := call(t, srv, http.MethodGet, "/api/students/0440000001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fresh models.Student
	decode(t, w, &fresh)
	assert.Equal(t, "Student 0440000001", fresh.Name)
	assert.Equal(t, "Fun Class", fresh.Class)
	assert.Zero(t, fresh.Sessions)

	w = call(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{
		"studentId": "0440000001", "gameNum": 1, "score": 30, "misses": 2, "timeSpent": 12000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Student  models.Student `json:"student"`
		NewBadge *models.Badge  `json:"newBadge"`
	}
	decode(t, w, &result)
	assert.Equal(t, 1, result.Student.Sessions)
	assert.Equal(t, 30, result.Student.HighScore)
	assert.Len(t, result.Student.Badges, 1)
	require.NotNil(t, result.NewBadge)
	assert.Equal(t, 1, result.NewBadge.Game)
	assert.Equal(t, 30, result.NewBadge.Score)
	assert.Equal(t, "Master of Mouse Trainer", result.NewBadge.Type)
	assert.Equal(t, 30, result.Student.OverallScore)
	assert.Equal(t, int64(12000), result.Student.TimeSpent["1"])
}

func TestServerSessionErrors(t *testing.T) {
	srv := testServer(t)

	w := call(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{"studentId": "ghost", "gameNum": 1, "score": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	call(t, srv, http.MethodGet, "/api/students/s-1", nil)
	w = call(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{"studentId": "s-1", "score": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(t, srv, http.MethodGet, "/api/students/s-1", nil)
	var student models.Student
	decode(t, w, &student)
	assert.Zero(t, student.Sessions)
}

func TestServerAdminAndProfile(t *testing.T) {
	srv := testServer(t)

	w := call(t, srv, http.MethodPost, "/api/admin/students", dto.CreateStudentRequest{StudentID: "b", Name: "Zed", Class: "X"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = call(t, srv, http.MethodPost, "/api/admin/students", dto.CreateStudentRequest{StudentID: "a", Name: "Amy", Class: "X"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = call(t, srv, http.MethodPost, "/api/admin/students", dto.CreateStudentRequest{StudentID: "a", Name: "Again", Class: "Y"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = call(t, srv, http.MethodPut, "/api/students/a", map[string]string{"class": "Y"})
	require.Equal(t, http.StatusOK, w.Code)
	w = call(t, srv, http.MethodPut, "/api/students/nobody", map[string]string{"class": "Y"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, srv, http.MethodGet, "/api/admin/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roster []models.Student
	decode(t, w, &roster)
	require.Len(t, roster, 2)
	assert.Equal(t, "Amy", roster[0].Name)
	assert.Equal(t, "Y", roster[0].Class)

	w = call(t, srv, http.MethodGet, "/api/admin/students/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a,Amy,Y,0,0,0,0,0:00:00")

	w = call(t, srv, http.MethodDelete, "/api/students/%20a%20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":true,"studentId":"a"}`, w.Body.String())
	w = call(t, srv, http.MethodDelete, "/api/students/a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(t, srv, http.MethodGet, "/api/students/a", nil)
	var recreated models.Student
	decode(t, w, &recreated)
	assert.Equal(t, "Student a", recreated.Name)
}

func TestServerLeaderboardAndConcurrency(t *testing.T) {
	srv := testServer(t)
	for _, id := range []string{"low", "high"} {
		call(t, srv, http.MethodGet, "/api/students/"+id, nil)
	}
	call(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{"studentId": "low", "gameNum": 2, "score": 3})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			call(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{"studentId": "high", "gameNum": 5, "score": score, "timeSpent": 100})
		}(40 + i)
	}
	wg.Wait()

	w := call(t, srv, http.MethodGet, "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var top []models.Student
	decode(t, w, &top)
	require.Len(t, top, 2)
	assert.Equal(t, "high", top[0].StudentID)
	assert.Equal(t, 47, top[0].HighScore)
	assert.Equal(t, 8, top[0].Sessions)
	assert.Len(t, top[0].Badges, 1)
	assert.Equal(t, int64(800), top[0].TimeSpent["5"])
}

func TestServerOpsEndpoints(t *testing.T) {
	srv := testServer(t)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/ready", nil).Code)

	call(t, srv, http.MethodGet, "/api/games", nil)
	w := call(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/games"`)
}
