package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/models"
)

// ContentHandler serves content endpoints. Reads go through ContentService;
// every write goes through the lifecycle so it produces a version.
type ContentHandler struct {
	content   ContentService
	lifecycle LifecycleService
	log       *logrus.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content ContentService, lifecycle LifecycleService, log *logrus.Logger) *ContentHandler {
	return &ContentHandler{content: content, lifecycle: lifecycle, log: log}
}

// List handles GET /api/v1/content.
func (h *ContentHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	opts := models.ContentListOpts{
		DepartmentID: c.Query("department_id"),
		Status:       models.ContentStatus(c.Query("status")),
		Type:         models.ContentType(c.Query("type")),
		Limit:        parseInt(c.Query("limit"), 50),
		Offset:       parseOffset(c.Query("offset")),
	}

	items, hasMore, err := h.content.ListContent(c.Request.Context(), actor, opts)
	if err != nil {
		respondServiceError(c, h.log, "list content", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     items,
		"has_more": hasMore,
	})
}

// Get handles GET /api/v1/content/:id.
func (h *ContentHandler) Get(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	item, err := h.content.GetContent(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, h.log, "get content", err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// Create handles POST /api/v1/content.
func (h *ContentHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req models.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	item, err := h.lifecycle.CreateContent(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, h.log, "create content", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "content.create",
		"content_id": item.ID,
		"user_id":    actor.ID,
	}).Info("audit")

	c.JSON(http.StatusCreated, item)
}

// Update handles PUT /api/v1/content/:id.
func (h *ContentHandler) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	var req models.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondServiceError(c, h.log, "update content", err)
		return
	}

	item, err := h.lifecycle.UpdateContentAndSnapshot(
		c.Request.Context(), actor, id, req.ExpectedVersion, req.ContentPatch, req.ChangesSummary,
	)
	if err != nil {
		respondServiceError(c, h.log, "update content", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     "content.update",
		"content_id": id,
		"version":    item.Version,
		"user_id":    actor.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, item)
}

// Publish handles POST /api/v1/content/:id/publish.
func (h *ContentHandler) Publish(c *gin.Context) {
	h.transition(c, "content.publish", h.lifecycle.Publish)
}

// Archive handles POST /api/v1/content/:id/archive.
func (h *ContentHandler) Archive(c *gin.Context) {
	h.transition(c, "content.archive", h.lifecycle.Archive)
}

type transitionFunc func(ctx context.Context, actor models.Actor, id string, expected int) (*models.ContentItem, error)

func (h *ContentHandler) transition(c *gin.Context, action string, fn transitionFunc) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	id, ok := pathContentID(c)
	if !ok {
		return
	}

	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		respondServiceError(c, h.log, action, err)
		return
	}

	item, err := fn(c.Request.Context(), actor, id, req.ExpectedVersion)
	if err != nil {
		respondServiceError(c, h.log, action, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":     action,
		"content_id": id,
		"version":    item.Version,
		"user_id":    actor.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, item)
}
