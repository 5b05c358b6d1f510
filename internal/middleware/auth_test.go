package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/middleware"
	"github.com/deptdocs/revisor/internal/models"
)

type mockUserLookup struct {
	mu        sync.Mutex
	validKeys map[string]models.User
	err       error
	calls     int
}

func (m *mockUserLookup) GetUserByAPIKey(_ context.Context, apiKey string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.validKeys[apiKey]; ok {
		return &u, nil
	}
	return nil, models.ErrUserNotFound
}

func (m *mockUserLookup) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestAuthMiddleware(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockUserLookup{validKeys: map[string]models.User{"good-key": {ID: "u1", DepartmentID: "ops", Role: models.RoleEditor}}}

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{"valid token", "Bearer good-key", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"invalid token", "Bearer bad-key", http.StatusUnauthorized},
		{"no bearer prefix", "good-key", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.AuthMiddleware(lookup, log))
			r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("got %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_SetsActor(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockUserLookup{validKeys: map[string]models.User{"k1": {ID: "u1", DepartmentID: "ops", Role: models.RoleViewer}}}

	var (
		got models.Actor
		ok  bool
	)
	r := gin.New()
	r.Use(middleware.AuthMiddleware(lookup, log))
	r.GET("/test", func(c *gin.Context) {
		got, ok = middleware.ActorFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.Header.Set("Authorization", "Bearer k1")
	r.ServeHTTP(w, req)

	if !ok {
		t.Fatal("expected actor in context")
	}
	want := models.Actor{ID: "u1", DepartmentID: "ops", Role: models.RoleViewer}
	if got != want {
		t.Fatalf("actor = %+v, want %+v", got, want)
	}
}

func TestActorFromContext_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := middleware.ActorFromContext(c); ok {
		t.Fatal("expected no actor without authentication")
	}
}

func TestAuthMiddleware_FailuresFeedGuard(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockUserLookup{validKeys: map[string]models.User{}}
	guard := middleware.NewBruteForceGuard(log)

	r := gin.New()
	r.Use(middleware.BruteForceMiddleware(guard))
	r.Use(middleware.AuthMiddleware(lookup, log, guard))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 6)
	for range 6 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer guessed")
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusUnauthorized {
		t.Errorf("first attempt = %d, want 401", codes[0])
	}
	if codes[5] != http.StatusTooManyRequests {
		t.Errorf("sixth attempt = %d, want 429", codes[5])
	}
}

func TestAuthMiddleware_LookupOutageIsNotAFailedAttempt(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	lookup := &mockUserLookup{err: models.NewDependencyError("user store", errors.New("db down"))}
	guard := middleware.NewBruteForceGuard(log)

	r := gin.New()
	r.Use(middleware.BruteForceMiddleware(guard))
	r.Use(middleware.AuthMiddleware(lookup, log, guard))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 6 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
		req.Header.Set("Authorization", "Bearer good-key")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", w.Code)
		}
	}

	if guard.IsBlocked("good-key") {
		t.Error("key locked out by a directory outage")
	}
}

func TestCachedUserLookup(t *testing.T) {
	inner := &mockUserLookup{validKeys: map[string]models.User{"k1": {ID: "u1"}}}
	cached := middleware.NewCachedUserLookup(inner)
	ctx := context.Background()

	for range 3 {
		u, err := cached.GetUserByAPIKey(ctx, "k1")
		if err != nil || u.ID != "u1" {
			t.Fatalf("lookup = %v, %v", u, err)
		}
	}
	if inner.getCalls() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.getCalls())
	}

	for range 3 {
		if _, err := cached.GetUserByAPIKey(ctx, "nope"); err == nil {
			t.Fatal("expected error for unknown key")
		}
	}
	if inner.getCalls() != 2 {
		t.Errorf("unknown keys should be negatively cached, inner calls = %d", inner.getCalls())
	}

	inner.err = errors.New("db down")
	cached.Purge()
	for range 2 {
		if _, err := cached.GetUserByAPIKey(ctx, "k1"); err == nil {
			t.Fatal("expected error when inner fails")
		}
	}
	if inner.getCalls() != 4 {
		t.Errorf("transient errors must not be cached, inner calls = %d", inner.getCalls())
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"abc123", ""},
		{"", ""},
		{"Bearer ", ""},
		{"bearer abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			got := middleware.ExtractBearerToken(c)
			if got != tt.want {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
