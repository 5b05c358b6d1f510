package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/models"
)

// defaultRetentionDays applies when DELETE /audit omits retention_days.
const defaultRetentionDays = 90

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	svc AuditService
	log *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc AuditService, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, log: log}
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	opts := models.AuditQueryOpts{
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Action:       c.Query("action"),
		UserID:       c.Query("user_id"),
		Limit:        parseInt(c.Query("limit"), 50),
		Offset:       parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.svc.QueryAudit(c.Request.Context(), actor, opts)
	if err != nil {
		respondServiceError(c, h.log, "query audit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     entries,
		"has_more": hasMore,
	})
}

// Purge handles DELETE /api/v1/audit.
func (h *AuditHandler) Purge(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	retentionDays := defaultRetentionDays
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.svc.PurgeOldEntries(c.Request.Context(), actor, retentionDays)
	if err != nil {
		respondServiceError(c, h.log, "purge audit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}
