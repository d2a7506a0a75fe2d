package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"portfolio/internal/auth"
	"portfolio/internal/db"
	"portfolio/internal/models"
	"portfolio/internal/ratelimit"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "pw12345678"
)

type testEnv struct {
	handler  http.Handler
	database *gorm.DB
	limiter  *ratelimit.Limiter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "handlers_test.db")
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(t.Context(), database))

	signer := auth.NewSigner([]byte("test-secret"), time.Hour)
	svc := auth.NewService(database, signer, zerolog.Nop())

	limiter := ratelimit.New()
	srv := New(Options{
		DB:             database,
		Auth:           svc,
		Limiter:        limiter,
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         zerolog.Nop(),
	})

	env := &testEnv{handler: srv.Routes(), database: database, limiter: limiter}
	env.createUser(t, adminEmail, adminPassword, models.RoleAdmin)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password, role string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, e.database.Create(&user).Error)
	return user
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login response did not set the session cookie")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["token"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie missing")
	require.True(t, cookie.HttpOnly)
	require.Equal(t, "/", cookie.Path)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.False(t, cookie.Secure, "Secure must be off outside production")

	me := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, me.Code)
	user := decodeBody(t, me)["user"].(map[string]any)
	require.Equal(t, adminEmail, user["email"])
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)

	t.Run("identical body for unknown email and wrong password", func(t *testing.T) {
		unknown := env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "nobody@example.com", "password": "whatever1"})
		wrong := env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": adminEmail, "password": "wrong password"})

		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.Equal(t, http.StatusUnauthorized, wrong.Code)
		require.Equal(t, unknown.Body.String(), wrong.Body.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "not-an-email", "password": "whatever1"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// the session is gone; the still-valid token no longer grants access
	me := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, me.Code)

	// repeating logout with the dead cookie still succeeds
	again := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, again.Code)

	// and so does logout with no credentials at all
	bare := env.do(t, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, bare.Code)
}

func TestProtectedRoutes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("no token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", nil,
			&http.Cookie{Name: auth.CookieName, Value: "garbage"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non-admin forbidden from admin routes", func(t *testing.T) {
		env.createUser(t, "user@example.com", "pw12345678", models.RoleUser)
		cookie := env.login(t, "user@example.com", "pw12345678")

		rec := env.do(t, http.MethodGet, "/api/users", nil, cookie)
		require.Equal(t, http.StatusForbidden, rec.Code)

		// but the session itself works
		me := env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
		require.Equal(t, http.StatusOK, me.Code)
	})
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t)

	creds := map[string]string{"email": adminEmail, "password": "wrong password"}
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", creds)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
		require.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitHeadersOnPublicRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/blog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "59", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestBlogCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	create := env.do(t, http.MethodPost, "/api/blog", map[string]any{
		"title":   "Shipping a Portfolio API",
		"content": "Long form content.",
		"excerpt": "Short form.",
		"tags":    []string{"Go", "Backend"},
	}, cookie)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	post := decodeBody(t, create)["post"].(map[string]any)
	require.Equal(t, "shipping-a-portfolio-api", post["slug"])
	id := post["id"].(string)

	t.Run("duplicate title conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/blog", map[string]any{
			"title":   "Shipping a Portfolio API",
			"content": "Other content.",
		}, cookie)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("public fetch by slug", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/blog/shipping-a-portfolio-api", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)["post"].(map[string]any)
		require.Equal(t, "Shipping a Portfolio API", got["title"])
	})

	t.Run("listed newest first", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/blog", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		posts := decodeBody(t, rec)["posts"].([]any)
		require.Len(t, posts, 1)
	})

	t.Run("search matches content", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/blog/search?q=portfolio", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		posts := decodeBody(t, rec)["posts"].([]any)
		require.Len(t, posts, 1)
	})

	t.Run("filter by tag", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/blog/tag/go", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		posts := decodeBody(t, rec)["posts"].([]any)
		require.Len(t, posts, 1)
	})

	t.Run("update requires admin", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/blog/id/"+id,
			map[string]any{"excerpt": "Updated."})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("update and delete", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/blog/id/"+id,
			map[string]any{"excerpt": "Updated."}, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)["post"].(map[string]any)
		require.Equal(t, "Updated.", got["excerpt"])

		del := env.do(t, http.MethodDelete, "/api/blog/id/"+id, nil, cookie)
		require.Equal(t, http.StatusOK, del.Code)

		missing := env.do(t, http.MethodGet, "/api/blog/id/"+id, nil)
		require.Equal(t, http.StatusNotFound, missing.Code)
	})
}

func TestProjectsCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	var ids []string
	for i, title := range []string{"Project One", "Project Two"} {
		rec := env.do(t, http.MethodPost, "/api/projects", map[string]any{
			"title":        title,
			"description":  "A project.",
			"technologies": []string{"Go"},
			"featured":     i == 0,
		}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decodeBody(t, rec)["project"].(map[string]any)["id"].(string))
	}

	t.Run("featured listing", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/projects/featured", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		projects := decodeBody(t, rec)["projects"].([]any)
		require.Len(t, projects, 1)
	})

	t.Run("reorder is applied", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/projects/reorder",
			map[string]any{"ids": []string{ids[1], ids[0]}}, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var second models.Project
		require.NoError(t, env.database.First(&second, "id = ?", ids[1]).Error)
		require.Equal(t, 0, second.SortOrder)
	})

	t.Run("fetch by slug", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/projects/project-one", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/projects/"+ids[1], nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExperienceCRUD(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	rec := env.do(t, http.MethodPost, "/api/experience", map[string]any{
		"company":          "Acme",
		"position":         "Engineer",
		"start_date":       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"current":          true,
		"responsibilities": []string{"Build things"},
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["experience"].(map[string]any)["id"].(string)

	t.Run("current position cannot carry an end date", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/experience", map[string]any{
			"company":    "Acme",
			"position":   "Lead",
			"start_date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			"current":    true,
			"end_date":   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}, cookie)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("public listing", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/experience", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		entries := decodeBody(t, rec)["experience"].([]any)
		require.Len(t, entries, 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/experience/"+id,
			map[string]any{"location": "Remote"}, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody(t, rec)["experience"].(map[string]any)
		require.Equal(t, "Remote", got["location"])
	})
}

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	t.Run("short password rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users", map[string]any{
			"email":    "new@example.com",
			"name":     "New",
			"password": "short",
		}, cookie)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create and list", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users", map[string]any{
			"email":    "new@example.com",
			"name":     "New",
			"password": "pw12345678",
		}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		created := decodeBody(t, rec)["user"].(map[string]any)
		require.Equal(t, models.RoleUser, created["role"])
		_, hasHash := created["password_hash"]
		require.False(t, hasHash, "password hash must never be serialized")

		list := env.do(t, http.MethodGet, "/api/users", nil, cookie)
		require.Equal(t, http.StatusOK, list.Code)
		users := decodeBody(t, list)["users"].([]any)
		require.Len(t, users, 2)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users", map[string]any{
			"email":    "new@example.com",
			"name":     "Again",
			"password": "pw12345678",
		}, cookie)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLastAdminGuard(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	var admin models.User
	require.NoError(t, env.database.Where("email = ?", adminEmail).First(&admin).Error)

	t.Run("deleting the only admin is refused", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/users/"+admin.ID.String(), nil, cookie)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("demoting the only admin is refused", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/users/"+admin.ID.String(),
			map[string]any{"role": models.RoleUser}, cookie)
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("deletion allowed once another admin exists", func(t *testing.T) {
		second := env.createUser(t, "admin2@example.com", "pw12345678", models.RoleAdmin)

		rec := env.do(t, http.MethodDelete, "/api/users/"+second.ID.String(), nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("deleting a user revokes their sessions", func(t *testing.T) {
		victim := env.createUser(t, "victim@example.com", "pw12345678", models.RoleUser)
		victimCookie := env.login(t, "victim@example.com", "pw12345678")

		rec := env.do(t, http.MethodDelete, "/api/users/"+victim.ID.String(), nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		me := env.do(t, http.MethodGet, "/api/auth/me", nil, victimCookie)
		require.Equal(t, http.StatusUnauthorized, me.Code)
	})
}

func TestUploadWithoutStore(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, adminEmail, adminPassword)

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/healthz", "/readyz"} {
		rec := env.do(t, http.MethodGet, target, nil)
		require.Equal(t, http.StatusOK, rec.Code, fmt.Sprintf("GET %s", target))
	}
}
