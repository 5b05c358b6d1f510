package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/middleware"
	"github.com/deptdocs/revisor/internal/models"
)

const (
	testUserID       = "11111111-1111-1111-1111-111111111111"
	testDepartmentID = "ops"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// newTestRouter creates a gin engine that authenticates every request as an
// ops editor.
func newTestRouter() *gin.Engine {
	return newTestRouterAs(models.RoleEditor)
}

// newTestRouterAs creates a gin engine that authenticates every request with role.
func newTestRouterAs(role models.Role) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testUserID)
		c.Set(middleware.DepartmentIDKey, testDepartmentID)
		c.Set(middleware.RoleKey, string(role))
		c.Next()
	})

	return r
}

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}
