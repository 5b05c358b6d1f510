package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/deptdocs/revisor/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl *middleware.RateLimiter, setUser bool) *gin.Engine {
	r := gin.New()
	if setUser {
		r.Use(func(c *gin.Context) {
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				c.Set(middleware.UserIDKey, uid)
			}
			c.Next()
		})
	}
	r.Use(rl.Handler())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, remote, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
	req.RemoteAddr = remote
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	r := limitedRouter(middleware.NewRateLimiter(1, 2, middleware.ByClientIP), false)

	for i := range 2 {
		if w := hit(r, "1.2.3.4:1234", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}

	w := hit(r, "1.2.3.4:1234", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}
}

func TestRateLimiter_IndependentIPs(t *testing.T) {
	r := limitedRouter(middleware.NewRateLimiter(1, 1, middleware.ByClientIP), false)

	hit(r, "1.1.1.1:1000", "")
	if w := hit(r, "2.2.2.2:1000", ""); w.Code != http.StatusOK {
		t.Fatalf("different IP should not be rate limited, got %d", w.Code)
	}
}

func TestRateLimiter_ByUserSeparatesUsersOnOneIP(t *testing.T) {
	r := limitedRouter(middleware.NewRateLimiter(1, 1, middleware.ByUser), true)

	if w := hit(r, "10.0.0.1:1", "alice"); w.Code != http.StatusOK {
		t.Fatalf("alice first request: got %d", w.Code)
	}
	if w := hit(r, "10.0.0.1:2", "bob"); w.Code != http.StatusOK {
		t.Fatalf("bob behind the same address should get a separate bucket, got %d", w.Code)
	}
	if w := hit(r, "10.0.0.1:3", "alice"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("alice second request: expected 429, got %d", w.Code)
	}
	if w := hit(r, "10.0.0.1:4", ""); w.Code != http.StatusOK {
		t.Fatalf("anonymous request falls back to its IP bucket, got %d", w.Code)
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	rl := middleware.NewRateLimiter(1_000_000, 2, nil)

	for range 2 {
		rl.Allow("k")
	}

	if ok, _ := rl.Allow("k"); !ok {
		t.Fatal("expected tokens to refill")
	}
}
