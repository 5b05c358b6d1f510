package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/metrics"
	"github.com/deptdocs/revisor/internal/models"
)

var _ domain.Dispatcher = (*EventDispatcher)(nil)

// Sink labels for dispatch failure metrics.
const (
	sinkAudit        = "audit"
	sinkDirectory    = "directory"
	sinkNotification = "notification"
)

// EventDispatcher turns lifecycle events into one audit entry and, for
// published content, department notifications. It never fails the caller:
// sink errors are logged and counted.
type EventDispatcher struct {
	audit         domain.AuditSink
	notifications domain.NotificationSink
	directory     domain.UserDirectory
	publicPrefix  string
	log           *logrus.Logger
}

// NewEventDispatcher creates an EventDispatcher. publicPrefix is prepended
// to slugs to build notification action URLs.
func NewEventDispatcher(
	audit domain.AuditSink,
	notifications domain.NotificationSink,
	directory domain.UserDirectory,
	publicPrefix string,
	log *logrus.Logger,
) *EventDispatcher {
	return &EventDispatcher{
		audit:         audit,
		notifications: notifications,
		directory:     directory,
		publicPrefix:  publicPrefix,
		log:           log,
	}
}

// Dispatch records the event.
func (d *EventDispatcher) Dispatch(ctx context.Context, evt domain.LifecycleEvent) {
	if err := d.audit.AppendAudit(ctx, auditEntryFor(evt)); err != nil {
		d.fail(sinkAudit, evt, err)
	}

	if !shouldNotify(evt) {
		return
	}

	members, err := d.directory.ListDepartmentMembers(ctx, evt.Content.DepartmentID)
	if err != nil {
		d.fail(sinkDirectory, evt, err)

		return
	}

	template := d.notificationFor(evt)

	for _, member := range members {
		if member.ID == evt.ActorID {
			continue
		}

		n := template
		n.UserID = member.ID
		n.Metadata = map[string]any{
			"content_id":     evt.Content.ID,
			"version_number": evt.Version.VersionNumber,
		}

		if _, err := d.notifications.CreateNotification(ctx, &n); err != nil {
			d.fail(sinkNotification, evt, err)

			continue
		}

		metrics.NotificationsSent.WithLabelValues(string(n.Type)).Inc()
	}
}

func (d *EventDispatcher) fail(sink string, evt domain.LifecycleEvent, err error) {
	metrics.DispatchFailures.WithLabelValues(sink).Inc()

	d.log.WithFields(logrus.Fields{
		"sink":       sink,
		"kind":       evt.Kind,
		"content_id": evt.Content.ID,
		"version":    evt.Version.VersionNumber,
	}).WithError(models.NewDependencyError(sink, err)).Warn("dispatch failed")
}

func auditEntryFor(evt domain.LifecycleEvent) *models.AuditEntry {
	entry := &models.AuditEntry{
		UserID:       evt.ActorID,
		ResourceType: models.ResourceTypeContent,
		ResourceID:   evt.Content.ID,
		Metadata: map[string]any{
			"version_number":  evt.Version.VersionNumber,
			"changes_summary": evt.Version.ChangesSummary,
			"status":          string(evt.Content.Status),
		},
		CreatedAt: evt.OccurredAt,
	}

	switch evt.Kind {
	case domain.EventCreated:
		entry.Action = models.AuditActionCreate
		entry.Description = fmt.Sprintf("Created %q", evt.Content.Title)
	case domain.EventRestored:
		entry.Action = models.AuditActionVersionRestored
		entry.Description = fmt.Sprintf("Restored %q to version %d", evt.Content.Title, evt.RestoredFrom)
		entry.Metadata["previous_version"] = evt.PreviousVersion
		entry.Metadata["restored_from"] = evt.RestoredFrom
	default:
		entry.Action = models.AuditActionUpdate
		entry.Description = fmt.Sprintf("Updated %q to version %d", evt.Content.Title, evt.Version.VersionNumber)
		entry.Metadata["previous_version"] = evt.PreviousVersion
	}

	return entry
}

func shouldNotify(evt domain.LifecycleEvent) bool {
	if evt.Content.Status != models.StatusPublished {
		return false
	}

	return evt.Kind == domain.EventCreated || evt.Kind == domain.EventUpdated
}

func (d *EventDispatcher) notificationFor(evt domain.LifecycleEvent) models.Notification {
	n := models.Notification{
		Priority:  models.PriorityNormal,
		ActionURL: evt.Content.PublicPath(d.publicPrefix),
	}

	switch {
	case evt.Kind == domain.EventCreated:
		n.Type = models.NotificationContentCreated
		n.Title = "New content: " + evt.Content.Title
		n.Message = fmt.Sprintf("%q was published in your department.", evt.Content.Title)
	case evt.PreviousStatus != models.StatusPublished:
		n.Type = models.NotificationContentPublished
		n.Title = "Published: " + evt.Content.Title
		n.Message = fmt.Sprintf("%q is now published.", evt.Content.Title)
	default:
		n.Type = models.NotificationContentUpdated
		n.Title = "Updated: " + evt.Content.Title
		n.Message = fmt.Sprintf("%q was updated to version %d.", evt.Content.Title, evt.Version.VersionNumber)
	}

	if evt.Content.Type == models.ContentTypeAnnouncement || evt.Content.Type == models.ContentTypePolicy {
		n.Priority = models.PriorityHigh
	}

	return n
}
