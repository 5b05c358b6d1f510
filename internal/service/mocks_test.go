package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// mockAuditSink records appended entries.
type mockAuditSink struct {
	mu      sync.Mutex
	entries []models.AuditEntry
	err     error
}

func (m *mockAuditSink) AppendAudit(_ context.Context, e *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.entries = append(m.entries, *e)

	return nil
}

func (m *mockAuditSink) getEntries() []models.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.AuditEntry(nil), m.entries...)
}

// mockNotificationSink records created notifications. failFor makes
// creation fail for specific recipients.
type mockNotificationSink struct {
	mu      sync.Mutex
	created []models.Notification
	failFor map[string]error
}

func (m *mockNotificationSink) CreateNotification(_ context.Context, n *models.Notification) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failFor[n.UserID]; err != nil {
		return nil, err
	}

	out := *n
	out.ID = "n-" + n.UserID
	m.created = append(m.created, out)

	return &out, nil
}

func (m *mockNotificationSink) getCreated() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.Notification(nil), m.created...)
}

// mockDirectory serves users from maps and counts GetUser calls.
type mockDirectory struct {
	mu       sync.Mutex
	users    map[string]models.User
	members  map[string][]models.User
	getErr   error
	listErr  error
	getCalls int
}

func newMockDirectory(users ...models.User) *mockDirectory {
	d := &mockDirectory{users: make(map[string]models.User), members: make(map[string][]models.User)}
	for _, u := range users {
		d.users[u.ID] = u
		d.members[u.DepartmentID] = append(d.members[u.DepartmentID], u)
	}

	return d
}

func (m *mockDirectory) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++

	if m.getErr != nil {
		return nil, m.getErr
	}

	u, ok := m.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}

	return &u, nil
}

func (m *mockDirectory) ListDepartmentMembers(_ context.Context, departmentID string) ([]models.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}

	return append([]models.User(nil), m.members[departmentID]...), nil
}

func (m *mockDirectory) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getCalls
}

// mockDispatcher records dispatched events.
type mockDispatcher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (m *mockDispatcher) Dispatch(_ context.Context, evt domain.LifecycleEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, evt)
}

func (m *mockDispatcher) getEvents() []domain.LifecycleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.LifecycleEvent(nil), m.events...)
}

// failingVersionStore overrides selected VersionStore methods.
type failingVersionStore struct {
	domain.VersionStore
	commitErr error
	listErr   error
}

func (f *failingVersionStore) CommitSnapshot(ctx context.Context, item *models.ContentItem, expected int, rec *models.VersionRecord) error {
	if f.commitErr != nil {
		return f.commitErr
	}

	return f.VersionStore.CommitSnapshot(ctx, item, expected, rec)
}

func (f *failingVersionStore) ListVersions(ctx context.Context, contentID string, limit, offset int) ([]models.VersionRecord, bool, error) {
	if f.listErr != nil {
		return nil, false, f.listErr
	}

	return f.VersionStore.ListVersions(ctx, contentID, limit, offset)
}

var (
	alice = models.User{ID: "alice", Username: "alice", DisplayName: "Alice", DepartmentID: "ops", Role: models.RoleEditor}
	bob   = models.User{ID: "bob", Username: "bob", DisplayName: "Bob", DepartmentID: "ops", Role: models.RoleEditor}
	vera  = models.User{ID: "vera", Username: "vera", DisplayName: "Vera", DepartmentID: "ops", Role: models.RoleViewer}
	hank  = models.User{ID: "hank", Username: "hank", DisplayName: "Hank", DepartmentID: "hr", Role: models.RoleEditor}
	root  = models.User{ID: "root", Username: "root", DisplayName: "Root", DepartmentID: "it", Role: models.RoleAdmin}
)
