package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSessions struct {
	created  bool
	err      error
	gotKey   string
	gotActor appauth.Actor
	filter   dto.SessionFilter
}

func (s *stubSessions) CreateSession(_ context.Context, actor appauth.Actor, req *dto.CreateSessionRequest, key string) (*models.CourseSession, bool, error) {
	s.gotKey = key
	s.gotActor = actor
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.CourseSession{ID: uuid.New(), CourseID: req.CourseID, Title: req.Title}, s.created, nil
}

func (s *stubSessions) ListSessions(_ context.Context, _ appauth.Actor, filter dto.SessionFilter) ([]models.CourseSession, error) {
	s.filter = filter
	return []models.CourseSession{}, nil
}

func (s *stubSessions) GetSession(context.Context, appauth.Actor, uuid.UUID) (*models.CourseSession, error) {
	return nil, apperrors.ErrSessionNotFound
}

func (s *stubSessions) UpdateSession(context.Context, appauth.Actor, uuid.UUID, *dto.UpdateSessionRequest) (*models.CourseSession, error) {
	return nil, nil
}

func (s *stubSessions) DeleteSession(context.Context, appauth.Actor, uuid.UUID) error {
	return nil
}

func (s *stubSessions) JoinSession(context.Context, appauth.Actor, uuid.UUID) (*dto.JoinSessionResponse, error) {
	return nil, nil
}

// asActor stands in for JWTAuth.
func asActor(actor appauth.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor.ID)
		c.Set(middleware.ContextRole, actor.Role)
		c.Next()
	}
}

func sessionRouter(svc *stubSessions, actor appauth.Actor) *gin.Engine {
	c := NewSessionController(svc)
	r := gin.New()
	r.Use(asActor(actor))
	r.POST("/sessions", c.CreateSession)
	r.GET("/sessions", c.ListSessions)
	r.GET("/sessions/:id", c.GetSession)
	return r
}

func sessionBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"courseId":        uuid.NewString(),
		"title":           "Week 1",
		"startTime":       "2024-03-04T10:00:00Z",
		"durationMinutes": 60,
		"studentIds":      []string{uuid.NewString()},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestCreateSession_StatusReflectsReplay(t *testing.T) {
	teacher := appauth.Actor{ID: uuid.New(), Role: models.RoleTeacher}

	for _, tc := range []struct {
		created bool
		status  int
	}{
		{true, http.StatusCreated},
		{false, http.StatusOK},
	} {
		svc := &stubSessions{created: tc.created}
		r := sessionRouter(svc, teacher)

		req := httptest.NewRequest(http.MethodPost, "/sessions", sessionBody(t))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(IdempotencyKeyHeader, "  key-1 ")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, "key-1", svc.gotKey)
		assert.Equal(t, teacher, svc.gotActor)
	}
}

func TestCreateSession_ServiceErrorMapped(t *testing.T) {
	svc := &stubSessions{err: apperrors.NewExternalServiceError("Failed to create video room", assert.AnError)}
	r := sessionRouter(svc, appauth.Actor{ID: uuid.New(), Role: models.RoleTeacher})

	req := httptest.NewRequest(http.MethodPost, "/sessions", sessionBody(t))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, dto.ErrorCodeExternalServiceError, body.Error.Code)
}

func TestListSessions_ParsesFilter(t *testing.T) {
	svc := &stubSessions{}
	r := sessionRouter(svc, appauth.Actor{ID: uuid.New(), Role: models.RoleAdmin})
	courseID := uuid.New()

	req := httptest.NewRequest(http.MethodGet,
		"/sessions?courseId="+courseID.String()+"&from=2024-03-01T00:00:00Z&to=2024-03-31T00:00:00Z", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.filter.CourseID)
	assert.Equal(t, courseID, *svc.filter.CourseID)
	require.NotNil(t, svc.filter.From)
	assert.True(t, svc.filter.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, svc.filter.To)

	req = httptest.NewRequest(http.MethodGet, "/sessions?courseId=nope", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession_NotFound(t *testing.T) {
	r := sessionRouter(&stubSessions{}, appauth.Actor{ID: uuid.New(), Role: models.RoleStudent})

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMissingActorIsUnauthorized(t *testing.T) {
	c := NewSessionController(&stubSessions{})
	r := gin.New()
	r.GET("/sessions", c.ListSessions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpload_MissingFile(t *testing.T) {
	c := NewFileController(nil)
	r := gin.New()
	r.Use(asActor(appauth.Actor{ID: uuid.New(), Role: models.RoleTeacher}))
	r.POST("/files", c.Upload)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("folder", "course"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
