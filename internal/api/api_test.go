package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/templemind/internal/ai"
	"github.com/vytor/templemind/internal/api"
	"github.com/vytor/templemind/internal/auth"
	"github.com/vytor/templemind/internal/content"
	"github.com/vytor/templemind/internal/jobs"
	"github.com/vytor/templemind/internal/minigame"
	"github.com/vytor/templemind/internal/repository/sqlstore"
	"github.com/vytor/templemind/internal/services"
	"github.com/vytor/templemind/internal/session"
	"github.com/vytor/templemind/internal/testutil"
	"github.com/vytor/templemind/internal/worker"
)

type testEnv struct {
	handler http.Handler
	pool    *worker.Pool
	clock   *testutil.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, d) })

	lib := content.MustLoadDefaults()
	clock := testutil.NewFakeClock()

	profileSvc := services.NewProfileService(sqlstore.NewProfileRepository(d), auth.NewTokens("api-test-secret-0123456789abcdef", time.Hour))
	progressSvc := services.NewProgressService(sqlstore.NewProgressRepository(d), sqlstore.NewResultRepository(d), clock.Now)

	pool := worker.NewPool("results", 1, 8)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Stop(context.Background()) })

	manager := session.NewManager(minigame.NewFactory(lib), session.WithClock(clock))
	t.Cleanup(manager.DisposeAll)

	srv := &api.Server{
		ProfileService:   profileSvc,
		GameService:      services.NewGameService(manager, progressSvc, jobs.NewWorkerQueue(pool, progressSvc)),
		ProgressService:  progressSvc,
		CompanionService: services.NewCompanionService(ai.NewCompanion(nil, lib), sqlstore.NewChatRepository(d), progressSvc, lib),
		DB:               d,
		CORSOrigins:      []string{"*"},
	}
	return &testEnv{handler: srv.Routes(), pool: pool, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *testEnv) register(t *testing.T, name, religion string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/profiles", "", map[string]string{"username": name, "religion": religion})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			found = true
		}
	}
	assert.True(t, found, "registration sets the identity cookie")
	return decode[services.Registration](t, rec).Token
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("down") }

func TestReady_DatabaseDown(t *testing.T) {
	srv := &api.Server{DB: failingPinger{}}
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterAndMe(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "lotus", "taoism")

	rec := e.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Identity struct {
			Username string `json:"username"`
			Religion string `json:"religion"`
			Guest    bool   `json:"guest"`
		} `json:"identity"`
		Overview services.Overview `json:"overview"`
	}](t, rec)
	assert.Equal(t, "lotus", me.Identity.Username)
	assert.Equal(t, "taoism", me.Identity.Religion)
	assert.False(t, me.Identity.Guest)
	assert.Zero(t, me.Overview.Progress.TotalStars)

	rec = e.do(t, http.MethodPost, "/api/profiles", "", map[string]string{"username": "LOTUS", "religion": "mazu"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, rec).Error.Code)
}

func TestGuestByDefault(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("X-Religion", "mazu")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"guest":true`)
	assert.Contains(t, rec.Body.String(), `"religion":"mazu"`)

	rec = e.do(t, http.MethodGet, "/api/me", "garbage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"guest":true`)
}

func TestChangeReligion(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "lotus", "buddhism")

	rec := e.do(t, http.MethodPut, "/api/me/religion", token, map[string]string{"religion": "mazu"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"religion":"mazu"`)

	rec = e.do(t, http.MethodPut, "/api/me/religion", "", map[string]string{"religion": "mazu"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/me/religion", token, map[string]string{"religion": "none"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLevels(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/levels", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	levels := decode[struct {
		Levels []services.LevelInfo `json:"levels"`
	}](t, rec).Levels
	require.Len(t, levels, 30)
	assert.True(t, levels[5].Unlocked)
	assert.False(t, levels[6].Unlocked)

	rec = e.do(t, http.MethodGet, "/api/levels/31", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/levels/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycle_PersistsResult(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "lotus", "buddhism")

	rec := e.do(t, http.MethodPost, "/api/sessions", token, map[string]int{"level": 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[session.Snapshot](t, rec)
	assert.Equal(t, session.PhasePlay, snap.Phase)

	rec = e.do(t, http.MethodGet, "/api/sessions/"+snap.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/sessions/"+snap.ID+"/input", token, session.Input{Action: session.ActionSubmit})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[session.Snapshot](t, rec)
	assert.Equal(t, session.PhaseComplete, done.Phase)

	// drain the result queue
	require.NoError(t, e.pool.Stop(context.Background()))

	rec = e.do(t, http.MethodGet, "/api/sessions/"+snap.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.SaveSaved, decode[session.Snapshot](t, rec).SaveStatus)

	rec = e.do(t, http.MethodGet, "/api/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[services.Overview](t, rec)
	assert.Equal(t, 1, overview.Progress.TotalGames)
	assert.Equal(t, done.Stars, overview.Progress.TotalStars)
	assert.Equal(t, done.Score, overview.Progress.AverageScore)

	rec = e.do(t, http.MethodGet, "/api/results?game_type=logic-scripture", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[services.ResultPage](t, rec)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 5, page.Results[0].Level)
	assert.Equal(t, 1, page.Total)
}

func TestSession_ExitAndOwnership(t *testing.T) {
	e := newTestEnv(t)
	alice := e.register(t, "alice", "buddhism")
	bob := e.register(t, "bob", "taoism")

	rec := e.do(t, http.MethodPost, "/api/sessions", alice, map[string]int{"level": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decode[session.Snapshot](t, rec)

	rec = e.do(t, http.MethodGet, "/api/sessions/"+snap.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/sessions/"+snap.ID+"/restart", alice, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	restarted := decode[session.Snapshot](t, rec)
	assert.NotEqual(t, snap.ID, restarted.ID)

	rec = e.do(t, http.MethodDelete, "/api/sessions/"+restarted.ID, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/sessions/"+restarted.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_LockedChapter(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/sessions", "", map[string]int{"level": 13})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CHAPTER_LOCKED", decode[errorBody](t, rec).Error.Code)
}

func TestSession_LevelRequired(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/sessions", "", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, rec).Error.Code)

	rec = e.do(t, http.MethodPost, "/api/sessions", "", map[string]int{"level": -7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_BadInput(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/sessions", "", map[string]int{"level": 5})
	require.Equal(t, http.StatusCreated, rec.Code)
	snap := decode[session.Snapshot](t, rec)

	rec = e.do(t, http.MethodPost, "/api/sessions/"+snap.ID+"/input", "", map[string]string{"action": "moonwalk"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/sessions/"+snap.ID+"/input", "", map[string]string{"unknown_field": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanionEndpoints_Fallback(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "lotus", "mazu")

	rec := e.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": "I feel anxious"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[services.ChatResponse](t, rec)
	assert.Equal(t, ai.SourceFallback, resp.Reply.Source)
	assert.NotEmpty(t, resp.Reply.Text)
	assert.True(t, resp.Saved)

	rec = e.do(t, http.MethodGet, "/api/chat/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "I feel anxious")

	rec = e.do(t, http.MethodGet, "/api/questions?game_type=logic-sequence&chapter=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"fallback"`)

	rec = e.do(t, http.MethodGet, "/api/tips", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/story", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unlocked":true`)
	assert.Contains(t, rec.Body.String(), `"unlocked":false`)

	rec = e.do(t, http.MethodPost, "/api/chat", token, map[string]string{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProfile(t *testing.T) {
	e := newTestEnv(t)
	token := e.register(t, "lotus", "buddhism")

	rec := e.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[struct {
		Identity struct {
			ProfileID int64 `json:"profile_id"`
		} `json:"identity"`
	}](t, rec).Identity.ProfileID

	rec = e.do(t, http.MethodDelete, "/api/profiles/999", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodDelete, "/api/profiles/"+strconv.FormatInt(id, 10), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"guest":true`, "tokens of deleted profiles fall back to guest")
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, rec).Error.Code)
}
