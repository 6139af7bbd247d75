package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mystic-forest-server/internal/database"
	"mystic-forest-server/internal/interfaces/mocks"
	"mystic-forest-server/internal/models"
	"mystic-forest-server/internal/service"
	"mystic-forest-server/internal/story"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testCookie = CookieConfig{Name: "session_id", MaxAge: 720 * time.Hour}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	graph, err := story.LoadDefault()
	require.NoError(t, err)
	store := database.NewMemorySessionStore(zap.NewNop())
	svc := service.NewGameService(graph, store, nil, "https://image.pollinations.ai/prompt", zap.NewNop())

	router := gin.New()
	NewGameHandler(svc, testCookie, zap.NewNop()).RegisterRoutes(router)
	return router
}

func setupMockRouter(svc *mocks.GameService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewGameHandler(svc, testCookie, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("session_id cookie not set")
	return nil
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestGameHandler_PlayThrough(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/state", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)
	assert.Equal(t, 30*24*3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, cookie.Value, w.Header().Get(SessionHeader))

	view := decode[models.StoryView](t, w)
	assert.Equal(t, "start", view.Node)
	assert.Len(t, view.Choices, 2)
	assert.False(t, view.IsTerminal)
	// Внутренние эффекты выбора клиенту не отдаются.
	assert.NotContains(t, w.Body.String(), "score_modifier")
	assert.NotContains(t, w.Body.String(), "next_node")

	for i := 0; i < 2; i++ {
		w = doRequest(router, http.MethodPost, "/api/choice", `{"choice_index": 0}`, cookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ack := decode[models.AckResponse](t, w)
		assert.True(t, ack.OK)
	}

	w = doRequest(router, http.MethodGet, "/api/state", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[models.StoryView](t, w)
	assert.Equal(t, cookie.Value, view.Token)
	assert.True(t, view.IsTerminal)
	assert.Equal(t, "Brave Explorer", view.EndingCategory)
	assert.Equal(t, 3, view.Score)
	assert.Equal(t, 3, view.CurrentScore)

	w = doRequest(router, http.MethodPost, "/api/choice", `{"choice_index": 0}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeInvalidChoiceIndex, decode[models.ErrorResponse](t, w).Error)

	w = doRequest(router, http.MethodGet, "/api/progress", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	progress := decode[models.SessionProgress](t, w)
	assert.Equal(t, []string{"start", "deep_forest", "end_brave"}, progress.PathHistory)
	assert.Equal(t, map[string]int{"curious": 1, "brave": 1}, progress.SentimentTally)

	w = doRequest(router, http.MethodPost, "/api/reset", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(router, http.MethodGet, "/api/state", "", cookie)
	view = decode[models.StoryView](t, w)
	assert.Equal(t, "start", view.Node)
	assert.Equal(t, 0, view.Score)
}

func TestGameHandler_SessionHeader(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/state", "", nil)
	token := w.Header().Get(SessionHeader)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodPost, "/api/choice", bytes.NewBufferString(`{"choice_index": 1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SessionHeader, token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set(SessionHeader, token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "clearing", decode[models.StoryView](t, w).Node)
}

func TestGameHandler_ChoiceErrors(t *testing.T) {
	router := setupRouter(t)
	w := doRequest(router, http.MethodGet, "/api/state", "", nil)
	cookie := sessionCookie(t, w)

	tests := []struct {
		name       string
		body       string
		cookie     *http.Cookie
		wantStatus int
		wantCode   string
	}{
		{"no session", `{"choice_index": 0}`, nil, http.StatusBadRequest, models.ErrCodeSessionNotFound},
		{"unknown session", `{"choice_index": 0}`, &http.Cookie{Name: "session_id", Value: "forged"}, http.StatusBadRequest, models.ErrCodeSessionNotFound},
		{"missing index", `{}`, cookie, http.StatusBadRequest, models.ErrCodeBadRequest},
		{"malformed body", `{"choice_index": "zero"}`, cookie, http.StatusBadRequest, models.ErrCodeBadRequest},
		{"out of range", `{"choice_index": 7}`, cookie, http.StatusBadRequest, models.ErrCodeInvalidChoiceIndex},
		{"negative", `{"choice_index": -1}`, cookie, http.StatusBadRequest, models.ErrCodeInvalidChoiceIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/choice", tt.body, tt.cookie)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode[models.ErrorResponse](t, w).Error)
		})
	}

	// Отклоненные запросы не двигают сессию.
	w = doRequest(router, http.MethodGet, "/api/state", "", cookie)
	assert.Equal(t, "start", decode[models.StoryView](t, w).Node)
}

func TestGameHandler_HealthAndTest(t *testing.T) {
	router := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])

	doRequest(router, http.MethodGet, "/api/state", "", nil)
	doRequest(router, http.MethodGet, "/api/state", "", nil)

	w = doRequest(router, http.MethodGet, "/api/test", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(7), body["story_nodes_count"])
	assert.Equal(t, float64(2), body["user_sessions_count"])
	assert.NotZero(t, body["timestamp"])
}

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"session not found", fmt.Errorf("wrapped: %w", models.ErrSessionNotFound), http.StatusBadRequest, models.ErrCodeSessionNotFound},
		{"invalid choice", models.ErrInvalidChoiceIndex, http.StatusBadRequest, models.ErrCodeInvalidChoiceIndex},
		{"invalid node", fmt.Errorf("%w: node %q", models.ErrInvalidNodeReference, "gone"), http.StatusInternalServerError, models.ErrCodeInvalidNodeReference},
		{"unexpected", errors.New("redis: connection refused"), http.StatusInternalServerError, models.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.GameService)
			svc.On("ApplyChoice", mock.Anything, "tok", 1).Return(tt.err).Once()
			router := setupMockRouter(svc)

			w := doRequest(router, http.MethodPost, "/api/choice", `{"choice_index": 1}`,
				&http.Cookie{Name: "session_id", Value: "tok"})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode[models.ErrorResponse](t, w)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.NotContains(t, resp.Message, "redis")
			svc.AssertExpectations(t)
		})
	}
}

func TestGameHandler_GetStateFailure(t *testing.T) {
	svc := new(mocks.GameService)
	svc.On("GetView", mock.Anything, "").Return(nil, errors.New("store unavailable")).Once()
	router := setupMockRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/state", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Result().Cookies())
	svc.AssertExpectations(t)
}

func TestGameHandler_RateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	graph, err := story.LoadDefault()
	require.NoError(t, err)
	svc := service.NewGameService(graph, database.NewMemorySessionStore(zap.NewNop()), nil, "", zap.NewNop())
	router := gin.New()
	NewGameHandler(svc, testCookie, zap.NewNop()).
		RegisterRoutes(router, NewRateLimitMiddleware(2, nil, zap.NewNop()))

	w := doRequest(router, http.MethodGet, "/api/state", "", nil)
	cookie := sessionCookie(t, w)

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/choice", `{"choice_index": 0}`, cookie).Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/reset", "", cookie).Code)

	w = doRequest(router, http.MethodPost, "/api/choice", `{"choice_index": 0}`, cookie)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, models.ErrCodeRateLimited, decode[models.ErrorResponse](t, w).Error)

	// Чтение состояния не лимитируется.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/state", "", cookie).Code)
	}
}
