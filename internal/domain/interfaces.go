// Package domain defines the canonical interfaces shared across layers
// (stores, services, REST handlers). Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"
	"time"

	"github.com/deptdocs/revisor/internal/models"
)

// ContentStore reads live content items.
type ContentStore interface {
	GetContent(ctx context.Context, contentID string) (*models.ContentItem, error)
	ListContent(ctx context.Context, opts models.ContentListOpts) ([]models.ContentItem, bool, error)
}

// VersionStore persists immutable version records. Only the lifecycle
// manager calls the write methods.
type VersionStore interface {
	// CreateContent inserts the content item and its first version atomically.
	CreateContent(ctx context.Context, item *models.ContentItem, first *models.VersionRecord) error
	// CommitSnapshot advances item from expectedVersion to record.VersionNumber,
	// clears the previous current flag and inserts record, as one atomic step.
	// It returns models.ErrVersionConflict when the stored version is no
	// longer expectedVersion.
	CommitSnapshot(ctx context.Context, item *models.ContentItem, expectedVersion int, record *models.VersionRecord) error
	GetVersion(ctx context.Context, contentID string, versionNumber int) (*models.VersionRecord, error)
	GetCurrentVersion(ctx context.Context, contentID string) (*models.VersionRecord, error)
	ListVersions(ctx context.Context, contentID string, limit, offset int) ([]models.VersionRecord, bool, error)
	VersionStats(ctx context.Context, contentID string) (*models.VersionStats, error)
}

// UserDirectory resolves user identities. It is used for read-side
// enrichment and notification fan-out, never for version write decisions.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListDepartmentMembers(ctx context.Context, departmentID string) ([]models.User, error)
}

// UserStore provisions and authenticates users.
type UserStore interface {
	UserDirectory
	CreateUser(ctx context.Context, req models.CreateUserRequest, apiKeyHash string) (*models.User, error)
	GetUserByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error)
}

// AuditSink is the minimal interface for recording audit entries.
type AuditSink interface {
	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
}

// AuditStore adds query and maintenance operations to AuditSink.
type AuditStore interface {
	AuditSink
	QueryAudit(ctx context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// NotificationSink is the minimal interface for creating notifications.
type NotificationSink interface {
	CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
}

// NotificationStore adds recipient-side operations to NotificationSink.
type NotificationStore interface {
	NotificationSink
	ListNotifications(ctx context.Context, userID string, opts models.NotificationQueryOpts) ([]models.Notification, bool, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	PurgeRead(ctx context.Context, olderThanDays int) (int, error)
}

// EventKind identifies a version transition.
type EventKind string

// Lifecycle event kinds.
const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventRestored EventKind = "restored"
)

// LifecycleEvent describes a committed version transition.
type LifecycleEvent struct {
	Kind            EventKind
	Content         models.ContentItem
	Version         models.VersionRecord
	PreviousVersion int
	PreviousStatus  models.ContentStatus
	RestoredFrom    int
	ActorID         string
	OccurredAt      time.Time
}

// Dispatcher consumes lifecycle events. Dispatch never fails the transition
// that produced the event.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt LifecycleEvent)
}

// Authorizer decides whether an actor may read or change content.
type Authorizer interface {
	CanRead(actor models.Actor, item *models.ContentItem) error
	CanWrite(actor models.Actor, item *models.ContentItem) error
	CanAdminister(actor models.Actor) error
}

// LifecycleService defines the version-producing operations.
type LifecycleService interface {
	CreateInitialVersion(ctx context.Context, actor models.Actor, item models.ContentItem) (*models.VersionRecord, error)
	CreateContent(ctx context.Context, actor models.Actor, req models.CreateContentRequest) (*models.ContentItem, error)
	UpdateContentAndSnapshot(ctx context.Context, actor models.Actor, contentID string, expectedVersion int, patch models.ContentPatch, summary string) (*models.ContentItem, error)
	RestoreVersion(ctx context.Context, actor models.Actor, contentID string, targetVersion int) (*models.ContentItem, error)
	Publish(ctx context.Context, actor models.Actor, contentID string, expectedVersion int) (*models.ContentItem, error)
	Archive(ctx context.Context, actor models.Actor, contentID string, expectedVersion int) (*models.ContentItem, error)
}

// ComparisonService defines the read-only version queries.
type ComparisonService interface {
	ListVersions(ctx context.Context, actor models.Actor, contentID string, limit, offset int) ([]models.EnrichedVersion, bool, error)
	GetVersion(ctx context.Context, actor models.Actor, contentID string, versionNumber int) (*models.EnrichedVersion, error)
	GetVersionStats(ctx context.Context, actor models.Actor, contentID string) (*models.VersionStats, error)
	CompareVersions(ctx context.Context, actor models.Actor, contentID string, from, to int) (*models.VersionComparison, error)
}

// ContentService defines content read operations.
type ContentService interface {
	GetContent(ctx context.Context, actor models.Actor, contentID string) (*models.ContentItem, error)
	ListContent(ctx context.Context, actor models.Actor, opts models.ContentListOpts) ([]models.ContentItem, bool, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	QueryAudit(ctx context.Context, actor models.Actor, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, actor models.Actor, retentionDays int) (int, error)
}

// NotificationService defines recipient-side notification operations.
type NotificationService interface {
	ListNotifications(ctx context.Context, actor models.Actor, opts models.NotificationQueryOpts) ([]models.Notification, bool, error)
	MarkRead(ctx context.Context, actor models.Actor, notificationID string) error
	MarkAllRead(ctx context.Context, actor models.Actor) (int, error)
}
