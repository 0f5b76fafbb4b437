package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promanage/internal/auth"
	"promanage/internal/models"
	"promanage/internal/service"
	"promanage/internal/storage/sqlstore"
)

type testEnv struct {
	srv  *Server
	pm   models.User
	tl   models.User
	prod models.User
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestEnv(t *testing.T, db Pinger) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(ctx, sqlstore.DialectSQLite, filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	mk := func(username string, role models.Role) models.User {
		u, err := store.UpsertUser(ctx, models.User{Username: username, Email: username + "@company.com", Password: hash, Role: role, Name: username})
		require.NoError(t, err)
		return u
	}

	stores := service.NewStoreSet(store)
	projects := service.NewProjectService(stores, store, store, logger)
	svc := Services{
		Auth:        service.NewAuthService(store, []byte("api-secret"), time.Hour, logger),
		Projects:    projects,
		Dashboard:   service.NewDashboardService(stores),
		Collab:      service.NewCollabService(projects, store, store, store, logger),
		Attachments: service.NewAttachmentService(projects, store, nil, store, logger),
	}
	if db == nil {
		db = store
	}

	return &testEnv{
		srv:  New(svc, db, logger, Options{}),
		pm:   mk("pm.azharrajput", models.RolePM),
		tl:   mk("tl.mustufa", models.RoleTL),
		prod: mk("prod.syedtaha", models.RoleProduction),
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return rec.Code, resp
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	code, resp := e.do(t, http.MethodPost, "/api/auth/login", "", body{"username": username, "password": "password123"})
	require.Equal(t, http.StatusOK, code, resp.Message)

	var data struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

type body = map[string]any

func decodeProject(t *testing.T, resp apiResponse) models.Project {
	t.Helper()
	var data struct {
		Project models.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.Project
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	code, resp := env.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	down := newTestEnv(t, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	code, resp = down.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, resp.Success)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	code, resp := env.do(t, http.MethodPost, "/api/auth/login", "", body{"username": " PM.AzharRajput ", "password": "password123"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", resp.Message)
	assert.NotContains(t, string(resp.Data), "password123")

	code, resp = env.do(t, http.MethodPost, "/api/auth/login", "", body{"username": "pm.azharrajput", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid username or password", resp.Message)

	code, _ = env.do(t, http.MethodPost, "/api/auth/login", "", body{"username": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	token := env.login(t, "tl.mustufa")
	code, resp = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), env.tl.ID)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/projects", "/api/dashboard/overview", "/api/notifications", "/api/users"} {
		code, resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.False(t, resp.Success, path)
	}

	code, _ := env.do(t, http.MethodGet, "/api/projects", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	env.srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	pmToken := env.login(t, "pm.azharrajput")
	tlToken := env.login(t, "tl.mustufa")
	prodToken := env.login(t, "prod.syedtaha")

	code, resp := env.do(t, http.MethodPost, "/api/projects", tlToken, body{"name": "Nope", "workspace": "LOGO"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied. Insufficient permissions.", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/projects", pmToken, body{"name": "Bad", "workspace": "MARKETING"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, resp = env.do(t, http.MethodPost, "/api/projects", pmToken, body{
		"name":        "Brand refresh",
		"workspace":   "WEB_DESIGN",
		"priority":    "HIGH",
		"developerId": env.tl.ID,
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	assert.Equal(t, "Project created successfully in WEB_DESIGN workspace", resp.Message)
	created := decodeProject(t, resp)
	assert.Equal(t, models.WorkspaceWebDesign, created.Workspace)
	assert.Equal(t, env.pm.ID, created.PMID)

	code, resp = env.do(t, http.MethodGet, "/api/projects/"+created.ID, tlToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, created.ID, decodeProject(t, resp).ID)

	// Production users only see projects assigned to them.
	code, _ = env.do(t, http.MethodGet, "/api/projects/"+created.ID, prodToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodGet, "/api/projects/web-design", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Web design projects retrieved successfully", resp.Message)
	assert.Contains(t, string(resp.Data), created.ID)

	code, resp = env.do(t, http.MethodGet, "/api/projects/logo-design", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(resp.Data), created.ID)

	code, resp = env.do(t, http.MethodPut, "/api/projects/"+created.ID, tlToken, body{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, code, resp.Message)
	assert.Equal(t, models.StatusInProgress, decodeProject(t, resp).Status)

	code, _ = env.do(t, http.MethodPut, "/api/projects/"+created.ID, tlToken, body{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/api/projects/"+created.ID, prodToken, body{"status": "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = env.do(t, http.MethodGet, "/api/projects/search?q=brand&status=IN_PROGRESS", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), created.ID)

	code, resp = env.do(t, http.MethodGet, "/api/notifications?unread=true", tlToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"assigned"`)

	code, _ = env.do(t, http.MethodDelete, "/api/projects/"+created.ID, tlToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp = env.do(t, http.MethodDelete, "/api/projects/"+created.ID, pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Project deleted successfully", resp.Message)

	code, resp = env.do(t, http.MethodGet, "/api/projects/"+created.ID, pmToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Project not found", resp.Message)
}

func TestCommentsAndDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	pmToken := env.login(t, "pm.azharrajput")
	tlToken := env.login(t, "tl.mustufa")

	code, resp := env.do(t, http.MethodPost, "/api/projects", pmToken, body{"name": "Copy deck", "workspace": "CONTENT", "developerId": env.tl.ID})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	p := decodeProject(t, resp)

	code, resp = env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/comments", tlToken, body{"content": "first draft ready @pm.azharrajput"})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	code, _ = env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/comments", tlToken, body{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/comments", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "first draft ready")

	code, resp = env.do(t, http.MethodGet, "/api/projects/"+p.ID+"/activity", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "Created project: Copy deck")

	code, resp = env.do(t, http.MethodPost, "/api/notifications/read-all", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"updated":1}`, string(resp.Data))

	code, resp = env.do(t, http.MethodGet, "/api/dashboard/overview", pmToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Dashboard overview retrieved successfully", resp.Message)
	var overview service.Overview
	require.NoError(t, json.Unmarshal(resp.Data, &overview))
	assert.Equal(t, 1, overview.TotalProjects)
	assert.Equal(t, 1, overview.WorkspaceStats.ContentWriter)

	code, _ = env.do(t, http.MethodGet, "/api/dashboard/my-stats", tlToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAttachmentsUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	pmToken := env.login(t, "pm.azharrajput")

	code, resp := env.do(t, http.MethodPost, "/api/projects", pmToken, body{"name": "Logo", "workspace": "LOGO"})
	require.Equal(t, http.StatusCreated, code, resp.Message)
	p := decodeProject(t, resp)

	code, resp = env.do(t, http.MethodPost, "/api/projects/"+p.ID+"/attachments", pmToken, body{"filename": "a.png", "type": "image"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, resp.Success)
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	code, resp := env.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", resp.Message)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>board</html>"), 0o644))

	env := newTestEnv(t, nil)
	srv := New(env.srv.svc, env.srv.db, env.srv.logger, Options{StaticDir: dir})

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/board", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "board")

	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
