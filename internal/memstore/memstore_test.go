package memstore_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptdocs/revisor/internal/memstore"
	"github.com/deptdocs/revisor/internal/models"
)

func seed(t *testing.T, s *memstore.ContentStore, id, slug string) *models.ContentItem {
	t.Helper()

	now := time.Now().UTC()
	fields := models.VersionFields{Title: "Initial", Slug: slug, Type: models.ContentTypeSOP, Status: models.StatusDraft, Tags: []string{"a"}}
	item := &models.ContentItem{ID: id, VersionFields: fields, Version: 1, DepartmentID: "ops", AuthorID: "u1", CreatedAt: now, UpdatedAt: now}
	v1 := &models.VersionRecord{ContentID: id, VersionNumber: 1, VersionFields: fields.Clone(), AuthorID: "u1", IsCurrentVersion: true, CreatedAt: now}

	require.NoError(t, s.CreateContent(context.Background(), item, v1))

	return item
}

func snapshot(item *models.ContentItem, n int, title string) (*models.ContentItem, *models.VersionRecord) {
	next := *item
	next.VersionFields = item.VersionFields.Clone()
	next.Title = title
	next.Version = n

	return &next, &models.VersionRecord{
		ContentID:        item.ID,
		VersionNumber:    n,
		VersionFields:    next.VersionFields.Clone(),
		AuthorID:         "u2",
		IsCurrentVersion: true,
		CreatedAt:        time.Now().UTC(),
	}
}

func TestContentStore_CommitSnapshot(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewContentStore(nil)
	item := seed(t, s, "c1", "c1")

	next, v2 := snapshot(item, 2, "Updated")
	require.NoError(t, s.CommitSnapshot(ctx, next, 1, v2))

	got, err := s.GetContent(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Updated", got.Title)

	v1, err := s.GetVersion(ctx, "c1", 1)
	require.NoError(t, err)
	assert.False(t, v1.IsCurrentVersion)
	assert.Equal(t, "Initial", v1.Title)

	cur, err := s.GetCurrentVersion(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, cur.VersionNumber)

	stale, v2b := snapshot(item, 2, "Stale")
	assert.ErrorIs(t, s.CommitSnapshot(ctx, stale, 1, v2b), models.ErrVersionConflict)

	missing, vm := snapshot(item, 2, "x")
	missing.ID = "nope"
	assert.ErrorIs(t, s.CommitSnapshot(ctx, missing, 1, vm), models.ErrContentNotFound)
}

func TestContentStore_DuplicateSlug(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewContentStore(nil)
	seed(t, s, "c1", "shared")
	other := seed(t, s, "c2", "other")

	now := time.Now()
	dup := &models.ContentItem{ID: "c3", VersionFields: models.VersionFields{Slug: "shared"}, Version: 1, CreatedAt: now}
	assert.ErrorIs(t, s.CreateContent(ctx, dup, &models.VersionRecord{ContentID: "c3", VersionNumber: 1}), models.ErrDuplicateSlug)

	next, v2 := snapshot(other, 2, "Renamed")
	next.Slug = "shared"
	v2.Slug = "shared"
	assert.ErrorIs(t, s.CommitSnapshot(ctx, next, 1, v2), models.ErrDuplicateSlug)

	got, err := s.GetContent(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version, "failed commit must not advance the version")
}

func TestContentStore_ReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewContentStore(nil)
	seed(t, s, "c1", "c1")

	v1, err := s.GetVersion(ctx, "c1", 1)
	require.NoError(t, err)

	v1.Tags[0] = "mutated"
	v1.Title = "mutated"

	again, err := s.GetVersion(ctx, "c1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Tags)
	assert.Equal(t, "Initial", again.Title)
}

func TestContentStore_ListVersionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewContentStore(nil)
	item := seed(t, s, "c1", "c1")

	for n := 2; n <= 5; n++ {
		next, rec := snapshot(item, n, "v")
		require.NoError(t, s.CommitSnapshot(ctx, next, n-1, rec))
	}

	page1, more, err := s.ListVersions(ctx, "c1", 2, 0)
	require.NoError(t, err)
	assert.True(t, more)
	require.Len(t, page1, 2)
	assert.Equal(t, 5, page1[0].VersionNumber)
	assert.Equal(t, 4, page1[1].VersionNumber)

	last, more, err := s.ListVersions(ctx, "c1", 2, 4)
	require.NoError(t, err)
	assert.False(t, more)
	require.Len(t, last, 1)
	assert.Equal(t, 1, last[0].VersionNumber)

	empty, more, err := s.ListVersions(ctx, "c1", 2, 10)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Empty(t, empty)

	stats, err := s.VersionStats(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, "u1", stats.FirstAuthorID)
	assert.Equal(t, "u2", stats.LastAuthorID)

	none, err := s.VersionStats(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, models.VersionStats{}, *none)
}

func TestContentStore_ConcurrentCommitsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewContentStore(nil)
	item := seed(t, s, "c1", "c1")

	const writers = 32

	var (
		wg        sync.WaitGroup
		wins      atomic.Int32
		conflicts atomic.Int32
	)

	start := make(chan struct{})

	for range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()
			<-start

			next, rec := snapshot(item, 2, "racer")
			switch err := s.CommitSnapshot(ctx, next, 1, rec); {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, models.ErrVersionConflict):
				conflicts.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())

	versions, _, err := s.ListVersions(ctx, "c1", 100, 0)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	current := 0
	for _, v := range versions {
		if v.IsCurrentVersion {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

type recordingHub struct {
	mu     sync.Mutex
	toUser []string
	toDept []string
}

func (h *recordingHub) BroadcastToUser(eventType, userID string, _ json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toUser = append(h.toUser, eventType+":"+userID)
}

func (h *recordingHub) BroadcastToDepartment(eventType, departmentID string, _ json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.toDept = append(h.toDept, eventType+":"+departmentID)
}

func TestNotificationStore_Flow(t *testing.T) {
	ctx := context.Background()
	hub := &recordingHub{}
	s := memstore.NewNotificationStore(hub)

	first, err := s.CreateNotification(ctx, &models.Notification{UserID: "u1", Type: models.NotificationContentCreated, Title: "one"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.PriorityNormal, first.Priority)

	_, err = s.CreateNotification(ctx, &models.Notification{UserID: "u1", Type: models.NotificationContentUpdated, Title: "two", Priority: models.PriorityHigh})
	require.NoError(t, err)

	assert.Equal(t, []string{"notification.created:u1", "notification.created:u1"}, hub.toUser)

	list, _, err := s.ListNotifications(ctx, "u1", models.NotificationQueryOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Title)

	require.NoError(t, s.MarkRead(ctx, "u1", first.ID))
	assert.ErrorIs(t, s.MarkRead(ctx, "u2", first.ID), models.ErrNotificationNotFound)

	unread, _, err := s.ListNotifications(ctx, "u1", models.NotificationQueryOpts{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	n, err := s.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A negative age puts the cutoff in the future, so every read notification qualifies.
	purged, err := s.PurgeRead(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)
}

func TestAuditStore_QueryAndPurge(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewAuditStore()

	old := &models.AuditEntry{Action: "update", ResourceType: "content", ResourceID: "c1", CreatedAt: time.Now().AddDate(0, 0, -400)}
	require.NoError(t, s.AppendAudit(ctx, old))
	require.NoError(t, s.AppendAudit(ctx, &models.AuditEntry{UserID: "u1", Action: "create", ResourceType: "content", ResourceID: "c2"}))

	byResource, _, err := s.QueryAudit(ctx, models.AuditQueryOpts{ResourceID: "c2"})
	require.NoError(t, err)
	require.Len(t, byResource, 1)
	assert.Equal(t, "u1", byResource[0].UserID)

	purged, err := s.PurgeOldEntries(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	all, _, err := s.QueryAudit(ctx, models.AuditQueryOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserStore_Directory(t *testing.T) {
	ctx := context.Background()
	s := memstore.NewUserStore()

	alice, err := s.CreateUser(ctx, models.CreateUserRequest{Username: "alice", DisplayName: "Alice", DepartmentID: "ops", Role: models.RoleEditor}, "h1")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.CreateUserRequest{Username: "bob", DepartmentID: "ops", Role: models.RoleViewer}, "h2")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, models.CreateUserRequest{Username: "carol", DepartmentID: "hr", Role: models.RoleViewer}, "h3")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, models.CreateUserRequest{Username: "alice", DepartmentID: "ops"}, "h4")
	assert.ErrorIs(t, err, models.ErrDuplicateKey)

	byKey, err := s.GetUserByAPIKeyHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byKey.ID)

	_, err = s.GetUserByAPIKeyHash(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	members, err := s.ListDepartmentMembers(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, "bob", members[1].Username)
}
