package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/models"
)

// authTimingFloor is the minimum response time for auth endpoints to prevent
// timing oracle attacks that could distinguish valid from invalid API keys.
const authTimingFloor = 50 * time.Millisecond

// Gin context keys set by AuthMiddleware.
const (
	UserIDKey       = "user_id"
	DepartmentIDKey = "department_id"
	RoleKey         = "role"
)

// UserLookup resolves the user owning an API key.
type UserLookup interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
}

// truncateKey returns at most the first 4 characters of key followed by "...".
func truncateKey(key string) string {
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return key
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via Bearer token.
// If a BruteForceGuard is provided, failed attempts are tracked per key hash.
func AuthMiddleware(lookup UserLookup, log *logrus.Logger, guards ...*BruteForceGuard) gin.HandlerFunc {
	var guard *BruteForceGuard
	if len(guards) > 0 {
		guard = guards[0]
	}

	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization header")
			return
		}

		user, err := lookup.GetUserByAPIKey(c.Request.Context(), apiKey)
		switch {
		case errors.Is(err, models.ErrNotFound):
			logAuthFailure(log, c, apiKey)

			if guard != nil {
				guard.RecordFailure(apiKey)
			}

			respondError(c, http.StatusUnauthorized, "unauthorized", "invalid api key")
			return
		case err != nil:
			// Lookup outages are not failed attempts.
			log.WithError(err).WithField("request_id", c.GetString(RequestIDKey)).Error("api key lookup failed")
			respondError(c, http.StatusServiceUnavailable, "auth_unavailable", "authentication is temporarily unavailable")
			return
		}

		if guard != nil {
			guard.ResetKey(apiKey)
		}

		c.Set(UserIDKey, user.ID)
		c.Set(DepartmentIDKey, user.DepartmentID)
		c.Set(RoleKey, string(user.Role))
		c.Next()
	}
}

// ActorFromContext returns the identity AuthMiddleware stored on c.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	id := c.GetString(UserIDKey)
	if id == "" {
		return models.Actor{}, false
	}

	return models.Actor{
		ID:           id,
		DepartmentID: c.GetString(DepartmentIDKey),
		Role:         models.Role(c.GetString(RoleKey)),
	}, true
}

// ExtractBearerToken extracts the API key from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, apiKey string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString(RequestIDKey),
		"key_prefix": truncateKey(apiKey),
	}).Warn("authentication failed: invalid api key")
}
