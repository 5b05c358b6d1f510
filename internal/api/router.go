package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/dbpool"
	"github.com/deptdocs/revisor/internal/middleware"
	"github.com/deptdocs/revisor/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	Pool          *dbpool.Pool // nil for the memory backend
	Hub           *ws.Hub
	Content       ContentService
	Lifecycle     LifecycleService
	Comparison    ComparisonService
	Audit         AuditService
	Notifications NotificationService
	UserLookup    middleware.UserLookup
	KeyValidator  ws.KeyValidator
	CORSOrigins   []string
	Version       string
	Backend       string
}

// Router-level limits.
const (
	maxBodySize = 2 << 20 // 2 MB, a 1 MB body plus JSON overhead
	rateLimit   = 100     // requests per second per IP
	rateBurst   = 200     // token bucket burst size
	writeLimit  = 5       // version-producing requests per second per user
	writeBurst  = 30
	wsPath      = "/api/v1/ws"
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	// The WebSocket handshake must not be wrapped by a compressing writer.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath})))
	r.Use(middleware.NewRateLimiter(rateLimit, rateBurst, middleware.ByClientIP).Handler())
	r.Use(middleware.Metrics())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version, deps.Backend)
	content := NewContentHandler(deps.Content, deps.Lifecycle, log)
	versions := NewVersionHandler(deps.Comparison, deps.Lifecycle, log)
	audit := NewAuditHandler(deps.Audit, log)
	notifications := NewNotificationHandler(deps.Notifications, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	bfGuard := middleware.NewBruteForceGuard(log)
	api.Use(middleware.BruteForceMiddleware(bfGuard))
	api.Use(middleware.AuthMiddleware(middleware.NewCachedUserLookup(deps.UserLookup), log, bfGuard))

	// Every write below commits a version, so writes are also limited per user.
	writes := middleware.NewRateLimiter(writeLimit, writeBurst, middleware.ByUser).Handler()

	// Content.
	api.GET("/content", content.List)
	api.POST("/content", writes, content.Create)
	api.GET("/content/:id", content.Get)
	api.PUT("/content/:id", writes, content.Update)
	api.POST("/content/:id/publish", writes, content.Publish)
	api.POST("/content/:id/archive", writes, content.Archive)

	// Versions.
	api.GET("/content/:id/versions", versions.List)
	api.GET("/content/:id/versions/:number", versions.Get)
	api.POST("/content/:id/versions/:number/restore", writes, versions.Restore)
	api.GET("/content/:id/stats", versions.Stats)
	api.GET("/content/:id/compare", versions.Compare)

	// Audit (admin only, enforced by the service).
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// Notifications.
	api.GET("/notifications", notifications.List)
	api.POST("/notifications/read-all", notifications.MarkAllRead)
	api.POST("/notifications/:id/read", notifications.MarkRead)

	// WebSocket endpoint.
	if deps.Hub != nil {
		api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.KeyValidator))
	}
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
