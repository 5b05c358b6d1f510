package api_test

import (
	"context"
	"sync"

	"github.com/deptdocs/revisor/internal/models"
)

// mockLifecycle implements api.LifecycleService with fn fields.
type mockLifecycle struct {
	mu    sync.Mutex
	calls []string

	createFn  func(actor models.Actor, req models.CreateContentRequest) (*models.ContentItem, error)
	updateFn  func(actor models.Actor, id string, expected int, patch models.ContentPatch, summary string) (*models.ContentItem, error)
	restoreFn func(actor models.Actor, id string, target int) (*models.ContentItem, error)
	statusFn  func(actor models.Actor, id string, expected int, status models.ContentStatus) (*models.ContentItem, error)
}

func (m *mockLifecycle) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockLifecycle) CreateInitialVersion(context.Context, models.Actor, models.ContentItem) (*models.VersionRecord, error) {
	return nil, nil
}

func (m *mockLifecycle) CreateContent(_ context.Context, actor models.Actor, req models.CreateContentRequest) (*models.ContentItem, error) {
	m.record("create")
	if m.createFn != nil {
		return m.createFn(actor, req)
	}

	return &models.ContentItem{ID: "c1", VersionFields: req.Fields(), Version: 1, DepartmentID: actor.DepartmentID}, nil
}

func (m *mockLifecycle) UpdateContentAndSnapshot(
	_ context.Context, actor models.Actor, id string, expected int, patch models.ContentPatch, summary string,
) (*models.ContentItem, error) {
	m.record("update")
	if m.updateFn != nil {
		return m.updateFn(actor, id, expected, patch, summary)
	}

	return &models.ContentItem{ID: id, Version: expected + 1}, nil
}

func (m *mockLifecycle) RestoreVersion(_ context.Context, actor models.Actor, id string, target int) (*models.ContentItem, error) {
	m.record("restore")
	if m.restoreFn != nil {
		return m.restoreFn(actor, id, target)
	}

	return &models.ContentItem{ID: id, Version: 2}, nil
}

func (m *mockLifecycle) Publish(_ context.Context, actor models.Actor, id string, expected int) (*models.ContentItem, error) {
	m.record("publish")
	return m.status(actor, id, expected, models.StatusPublished)
}

func (m *mockLifecycle) Archive(_ context.Context, actor models.Actor, id string, expected int) (*models.ContentItem, error) {
	m.record("archive")
	return m.status(actor, id, expected, models.StatusArchived)
}

func (m *mockLifecycle) status(actor models.Actor, id string, expected int, s models.ContentStatus) (*models.ContentItem, error) {
	if m.statusFn != nil {
		return m.statusFn(actor, id, expected, s)
	}

	return &models.ContentItem{ID: id, Version: expected + 1, VersionFields: models.VersionFields{Status: s}}, nil
}

// mockContent implements api.ContentService.
type mockContent struct {
	getFn  func(actor models.Actor, id string) (*models.ContentItem, error)
	listFn func(actor models.Actor, opts models.ContentListOpts) ([]models.ContentItem, bool, error)
}

func (m *mockContent) GetContent(_ context.Context, actor models.Actor, id string) (*models.ContentItem, error) {
	if m.getFn != nil {
		return m.getFn(actor, id)
	}

	return &models.ContentItem{ID: id, Version: 1}, nil
}

func (m *mockContent) ListContent(_ context.Context, actor models.Actor, opts models.ContentListOpts) ([]models.ContentItem, bool, error) {
	if m.listFn != nil {
		return m.listFn(actor, opts)
	}

	return []models.ContentItem{}, false, nil
}

// mockComparison implements api.ComparisonService.
type mockComparison struct {
	listFn    func(id string, limit, offset int) ([]models.EnrichedVersion, bool, error)
	getFn     func(id string, n int) (*models.EnrichedVersion, error)
	statsFn   func(id string) (*models.VersionStats, error)
	compareFn func(id string, from, to int) (*models.VersionComparison, error)
}

func (m *mockComparison) ListVersions(_ context.Context, _ models.Actor, id string, limit, offset int) ([]models.EnrichedVersion, bool, error) {
	if m.listFn != nil {
		return m.listFn(id, limit, offset)
	}

	return []models.EnrichedVersion{}, false, nil
}

func (m *mockComparison) GetVersion(_ context.Context, _ models.Actor, id string, n int) (*models.EnrichedVersion, error) {
	if m.getFn != nil {
		return m.getFn(id, n)
	}

	return &models.EnrichedVersion{VersionRecord: models.VersionRecord{ContentID: id, VersionNumber: n}}, nil
}

func (m *mockComparison) GetVersionStats(_ context.Context, _ models.Actor, id string) (*models.VersionStats, error) {
	if m.statsFn != nil {
		return m.statsFn(id)
	}

	return &models.VersionStats{}, nil
}

func (m *mockComparison) CompareVersions(_ context.Context, _ models.Actor, id string, from, to int) (*models.VersionComparison, error) {
	if m.compareFn != nil {
		return m.compareFn(id, from, to)
	}

	return &models.VersionComparison{ContentID: id, FromVersion: from, ToVersion: to, Diffs: []models.VersionDiff{}}, nil
}

// mockAudit implements api.AuditService.
type mockAudit struct {
	queryFn func(actor models.Actor, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn func(actor models.Actor, days int) (int, error)
}

func (m *mockAudit) QueryAudit(_ context.Context, actor models.Actor, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	if m.queryFn != nil {
		return m.queryFn(actor, opts)
	}

	return []models.AuditEntry{}, false, nil
}

func (m *mockAudit) PurgeOldEntries(_ context.Context, actor models.Actor, days int) (int, error) {
	if m.purgeFn != nil {
		return m.purgeFn(actor, days)
	}

	return 0, nil
}

// mockNotifications implements api.NotificationService.
type mockNotifications struct {
	listFn    func(actor models.Actor, opts models.NotificationQueryOpts) ([]models.Notification, bool, error)
	markFn    func(actor models.Actor, id string) error
	markAllFn func(actor models.Actor) (int, error)
}

func (m *mockNotifications) ListNotifications(_ context.Context, actor models.Actor, opts models.NotificationQueryOpts) ([]models.Notification, bool, error) {
	if m.listFn != nil {
		return m.listFn(actor, opts)
	}

	return []models.Notification{}, false, nil
}

func (m *mockNotifications) MarkRead(_ context.Context, actor models.Actor, id string) error {
	if m.markFn != nil {
		return m.markFn(actor, id)
	}

	return nil
}

func (m *mockNotifications) MarkAllRead(_ context.Context, actor models.Actor) (int, error) {
	if m.markAllFn != nil {
		return m.markAllFn(actor)
	}

	return 0, nil
}
