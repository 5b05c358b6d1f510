// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/diff"
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/metrics"
	"github.com/deptdocs/revisor/internal/models"
)

// Compile-time check: *LifecycleManager must satisfy domain.LifecycleService.
var _ domain.LifecycleService = (*LifecycleManager)(nil)

// Default changes summaries.
const (
	summaryInitial   = "Initial version"
	summaryPublished = "Published"
	summaryArchived  = "Archived"
	summaryNoChanges = "No changes"
)

// LifecycleManager is the only writer of version records. Every operation
// checks permissions, commits through the version store's compare-and-swap
// and, once committed, hands a LifecycleEvent to the dispatcher.
type LifecycleManager struct {
	content    domain.ContentStore
	versions   domain.VersionStore
	dispatcher domain.Dispatcher
	policy     domain.Authorizer
	log        *logrus.Logger
	now        func() time.Time
}

// NewLifecycleManager creates a LifecycleManager.
func NewLifecycleManager(
	content domain.ContentStore,
	versions domain.VersionStore,
	dispatcher domain.Dispatcher,
	policy domain.Authorizer,
	log *logrus.Logger,
) *LifecycleManager {
	return &LifecycleManager{
		content:    content,
		versions:   versions,
		dispatcher: dispatcher,
		policy:     policy,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateInitialVersion creates the content item and its version 1.
func (m *LifecycleManager) CreateInitialVersion(
	ctx context.Context, actor models.Actor, item models.ContentItem,
) (*models.VersionRecord, error) {
	_, v1, err := m.create(ctx, actor, item)
	if err != nil {
		return nil, err
	}

	return v1, nil
}

// CreateContent validates an HTTP create request and creates the content.
func (m *LifecycleManager) CreateContent(
	ctx context.Context, actor models.Actor, req models.CreateContentRequest,
) (*models.ContentItem, error) {
	item := models.ContentItem{
		VersionFields: req.Fields(),
		DepartmentID:  req.DepartmentID,
	}

	created, _, err := m.create(ctx, actor, item)
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (m *LifecycleManager) create(
	ctx context.Context, actor models.Actor, item models.ContentItem,
) (*models.ContentItem, *models.VersionRecord, error) {
	if item.DepartmentID == "" {
		item.DepartmentID = actor.DepartmentID
	}

	if err := m.policy.CanWrite(actor, &item); err != nil {
		return nil, nil, err
	}

	item.VersionFields = item.VersionFields.Clone()
	item.Tags = models.NormalizeTags(item.Tags)
	if item.Status == "" {
		item.Status = models.StatusDraft
	}

	if err := item.VersionFields.Validate(); err != nil {
		return nil, nil, err
	}

	if item.DepartmentID == "" {
		return nil, nil, models.ErrMissingDepartment
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	} else if _, err := uuid.Parse(item.ID); err != nil {
		return nil, nil, models.ErrInvalidContentID
	}

	now := m.now()
	item.Version = 1
	item.AuthorID = actor.ID
	item.CreatedAt = now
	item.UpdatedAt = now
	item.PublishedAt = nil

	if item.Status == models.StatusPublished {
		item.PublishedAt = &now
	}

	v1 := newRecord(&item, actor.ID, summaryInitial, now)

	if err := m.versions.CreateContent(ctx, &item, v1); err != nil {
		return nil, nil, models.NewDependencyError("version store", err)
	}

	metrics.VersionsCreated.WithLabelValues(string(domain.EventCreated)).Inc()

	m.log.WithFields(logrus.Fields{
		"content_id": item.ID,
		"version":    1,
		"actor":      actor.ID,
	}).Info("content created")

	m.emit(ctx, domain.LifecycleEvent{
		Kind:       domain.EventCreated,
		Content:    item,
		Version:    *v1,
		ActorID:    actor.ID,
		OccurredAt: now,
	})

	return &item, v1, nil
}

// UpdateContentAndSnapshot applies patch to the content at expectedVersion
// and records the result as version expectedVersion+1.
func (m *LifecycleManager) UpdateContentAndSnapshot(
	ctx context.Context,
	actor models.Actor,
	contentID string,
	expectedVersion int,
	patch models.ContentPatch,
	summary string,
) (*models.ContentItem, error) {
	if expectedVersion <= 0 {
		return nil, models.ErrMissingExpected
	}

	return m.snapshot(ctx, actor, contentID, expectedVersion, snapshotSpec{
		kind:    domain.EventUpdated,
		summary: summary,
		desired: func(base models.VersionFields) (models.VersionFields, error) {
			return patch.Apply(base), nil
		},
	})
}

// Publish sets the status to published as a new version.
func (m *LifecycleManager) Publish(
	ctx context.Context, actor models.Actor, contentID string, expectedVersion int,
) (*models.ContentItem, error) {
	return m.transition(ctx, actor, contentID, expectedVersion, models.StatusPublished, summaryPublished)
}

// Archive sets the status to archived as a new version.
func (m *LifecycleManager) Archive(
	ctx context.Context, actor models.Actor, contentID string, expectedVersion int,
) (*models.ContentItem, error) {
	return m.transition(ctx, actor, contentID, expectedVersion, models.StatusArchived, summaryArchived)
}

func (m *LifecycleManager) transition(
	ctx context.Context, actor models.Actor, contentID string, expectedVersion int,
	status models.ContentStatus, summary string,
) (*models.ContentItem, error) {
	if expectedVersion <= 0 {
		return nil, models.ErrMissingExpected
	}

	return m.snapshot(ctx, actor, contentID, expectedVersion, snapshotSpec{
		kind:    domain.EventUpdated,
		summary: summary,
		desired: func(base models.VersionFields) (models.VersionFields, error) {
			out := base.Clone()
			out.Status = status

			return out, nil
		},
	})
}

// RestoreVersion makes the fields of targetVersion current again by
// appending them as a new version. History is never rewritten.
func (m *LifecycleManager) RestoreVersion(
	ctx context.Context, actor models.Actor, contentID string, targetVersion int,
) (*models.ContentItem, error) {
	if targetVersion < 1 {
		return nil, models.ErrInvalidVersionNumber
	}

	return m.snapshot(ctx, actor, contentID, 0, snapshotSpec{
		kind:         domain.EventRestored,
		summary:      "Restored to version " + strconv.Itoa(targetVersion),
		restoredFrom: targetVersion,
		desired: func(models.VersionFields) (models.VersionFields, error) {
			target, err := m.versions.GetVersion(ctx, contentID, targetVersion)
			if err != nil {
				return models.VersionFields{}, models.NewDependencyError("version store", err)
			}

			return target.VersionFields.Clone(), nil
		},
	})
}

// snapshotSpec describes one version-producing change.
type snapshotSpec struct {
	kind         domain.EventKind
	summary      string
	restoredFrom int
	desired      func(base models.VersionFields) (models.VersionFields, error)
}

// snapshot is the shared update path. expectedVersion 0 means "whatever
// version was just read", which restores use.
func (m *LifecycleManager) snapshot(
	ctx context.Context,
	actor models.Actor,
	contentID string,
	expectedVersion int,
	spec snapshotSpec,
) (*models.ContentItem, error) {
	content, err := m.content.GetContent(ctx, contentID)
	if err != nil {
		return nil, models.NewDependencyError("content store", err)
	}

	if err := m.policy.CanWrite(actor, content); err != nil {
		return nil, err
	}

	current, err := m.versions.GetCurrentVersion(ctx, contentID)
	if err != nil {
		return nil, models.NewDependencyError("version store", err)
	}

	if expectedVersion == 0 {
		expectedVersion = content.Version
	}

	if content.Version != expectedVersion {
		metrics.VersionConflicts.Inc()

		return nil, models.ErrVersionConflict
	}

	fields, err := spec.desired(content.VersionFields)
	if err != nil {
		return nil, err
	}

	fields.Tags = models.NormalizeTags(fields.Tags)
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	summary := spec.summary
	if summary == "" {
		summary = diff.Summarize(diff.Compute(current.VersionFields, fields))
	}
	if summary == "" {
		summary = summaryNoChanges
	}

	now := m.now()

	next := *content
	next.VersionFields = fields
	next.Version = expectedVersion + 1
	next.UpdatedAt = now
	next.PublishedAt = publishedAt(content, fields.Status, now)

	record := newRecord(&next, actor.ID, summary, now)

	if err := m.versions.CommitSnapshot(ctx, &next, expectedVersion, record); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
		}

		return nil, models.NewDependencyError("version store", err)
	}

	metrics.VersionsCreated.WithLabelValues(string(spec.kind)).Inc()

	m.log.WithFields(logrus.Fields{
		"content_id": contentID,
		"version":    next.Version,
		"kind":       spec.kind,
		"actor":      actor.ID,
	}).Info("version committed")

	m.emit(ctx, domain.LifecycleEvent{
		Kind:            spec.kind,
		Content:         next,
		Version:         *record,
		PreviousVersion: expectedVersion,
		PreviousStatus:  content.Status,
		RestoredFrom:    spec.restoredFrom,
		ActorID:         actor.ID,
		OccurredAt:      now,
	})

	return &next, nil
}

// publishedAt keeps the original publication time while content stays
// published, stamps it when content becomes published and clears it when
// content leaves published.
func publishedAt(before *models.ContentItem, status models.ContentStatus, now time.Time) *time.Time {
	if status != models.StatusPublished {
		return nil
	}

	if before.Status == models.StatusPublished && before.PublishedAt != nil {
		t := *before.PublishedAt

		return &t
	}

	return &now
}

func newRecord(item *models.ContentItem, authorID, summary string, now time.Time) *models.VersionRecord {
	return &models.VersionRecord{
		ContentID:        item.ID,
		VersionNumber:    item.Version,
		VersionFields:    item.VersionFields.Clone(),
		AuthorID:         authorID,
		ChangesSummary:   summary,
		IsCurrentVersion: true,
		PublishedAt:      item.PublishedAt,
		CreatedAt:        now,
	}
}

// emit hands the event to the dispatcher. The dispatcher must not see the
// request's cancellation, since the version is already committed.
func (m *LifecycleManager) emit(ctx context.Context, evt domain.LifecycleEvent) {
	if m.dispatcher == nil {
		return
	}

	evt.Content.VersionFields = evt.Content.VersionFields.Clone()
	m.dispatcher.Dispatch(context.WithoutCancel(ctx), evt)
}
