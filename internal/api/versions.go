package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// VersionHandler serves version history endpoints.
type VersionHandler struct {
	comparison ComparisonService
	lifecycle  LifecycleService
	log        *logrus.Logger
}

// NewVersionHandler creates a VersionHandler.
func NewVersionHandler(comparison ComparisonService, lifecycle LifecycleService, log *logrus.Logger) *VersionHandler {
	return &VersionHandler{comparison: comparison, lifecycle: lifecycle, log: log}
}

// List handles GET /api/v1/content/:id/versions.
func (h *VersionHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	versions, hasMore, err := h.comparison.ListVersions(
		c.Request.Context(), actor, id, parseInt(c.Query("limit"), 50), parseOffset(c.Query("offset")),
	)
	if err != nil {
		respondServiceError(c, h.log, "list versions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     versions,
		"has_more": hasMore,
	})
}

// Get handles GET /api/v1/content/:id/versions/:number.
func (h *VersionHandler) Get(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	n, err := parseVersionNumber(c.Param("number"))
	if err != nil {
		respondServiceError(c, h.log, "get version", err)
		return
	}

	v, err := h.comparison.GetVersion(c.Request.Context(), actor, id, n)
	if err != nil {
		respondServiceError(c, h.log, "get version", err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// Restore handles POST /api/v1/content/:id/versions/:number/restore.
func (h *VersionHandler) Restore(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	n, err := parseVersionNumber(c.Param("number"))
	if err != nil {
		respondServiceError(c, h.log, "restore version", err)
		return
	}

	item, err := h.lifecycle.RestoreVersion(c.Request.Context(), actor, id, n)
	if err != nil {
		respondServiceError(c, h.log, "restore version", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":        "version.restore",
		"content_id":    id,
		"restored_from": n,
		"version":       item.Version,
		"user_id":       actor.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, item)
}

// Stats handles GET /api/v1/content/:id/stats.
func (h *VersionHandler) Stats(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	stats, err := h.comparison.GetVersionStats(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.log, "version stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Compare handles GET /api/v1/content/:id/compare?from=&to=.
func (h *VersionHandler) Compare(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	from, err := parseVersionNumber(c.Query("from"))
	if err != nil {
		respondServiceError(c, h.log, "compare versions", err)
		return
	}

	to, err := parseVersionNumber(c.Query("to"))
	if err != nil {
		respondServiceError(c, h.log, "compare versions", err)
		return
	}

	cmp, err := h.comparison.CompareVersions(c.Request.Context(), actor, id, from, to)
	if err != nil {
		respondServiceError(c, h.log, "compare versions", err)
		return
	}

	c.JSON(http.StatusOK, cmp)
}
