package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/models"
)

// NotificationHandler serves the authenticated user's notifications.
type NotificationHandler struct {
	svc NotificationService
	log *logrus.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc NotificationService, log *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: log}
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	opts := models.NotificationQueryOpts{
		UnreadOnly: c.Query("unread") == "true",
		Limit:      parseInt(c.Query("limit"), 50),
		Offset:     parseOffset(c.Query("offset")),
	}

	list, hasMore, err := h.svc.ListNotifications(c.Request.Context(), actor, opts)
	if err != nil {
		respondServiceError(c, h.log, "list notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     list,
		"has_more": hasMore,
	})
}

// MarkRead handles POST /api/v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := validatePathID(id); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), actor, id); err != nil {
		respondServiceError(c, h.log, "mark notification read", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	n, err := h.svc.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, h.log, "mark all notifications read", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": n})
}
