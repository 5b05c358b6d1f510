package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/middleware"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(testLogger()))
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	tests := []struct {
		name     string
		header   string
		wantEcho bool
	}{
		{"generated when absent", "", false},
		{"client uuid kept", "7f1c2a56-3b1e-4a53-8f58-2f4f0f6a9c11", true},
		{"malformed replaced", "not-a-uuid", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			if tc.header != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(middleware.RequestIDHeader)
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("response id %q is not a uuid", got)
			}
			if w.Body.String() != got {
				t.Errorf("context id %q != header id %q", w.Body.String(), got)
			}
			if tc.wantEcho != (got == tc.header) {
				t.Errorf("header %q, response id %q, wantEcho %v", tc.header, got, tc.wantEcho)
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MaxBodySize(16))
	r.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"a":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, small)
	if w.Code != http.StatusOK {
		t.Fatalf("small body: expected 200, got %d", w.Code)
	}

	large := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"title":"a much longer body"}`))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, large)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: expected 413, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "request_too_large") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}
