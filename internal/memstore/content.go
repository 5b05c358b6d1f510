// Package memstore provides in-memory implementations of the revisor stores.
// They follow the same contracts as the PostgreSQL stores and back
// STORE_BACKEND=memory and the service tests.
package memstore

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/deptdocs/revisor/internal/models"
)

// Broadcaster pushes realtime events to connected clients. ws.Hub satisfies it.
type Broadcaster interface {
	BroadcastToUser(eventType, userID string, data json.RawMessage)
	BroadcastToDepartment(eventType, departmentID string, data json.RawMessage)
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}

	return min(limit, 1000)
}

// page slices rows to [offset, offset+limit) and reports whether more follow.
func page[T any](rows []T, limit, offset int) ([]T, bool) {
	limit = clampLimit(limit)
	offset = max(offset, 0)

	if offset >= len(rows) {
		return []T{}, false
	}

	end := min(offset+limit, len(rows))

	return slices.Clone(rows[offset:end]), end < len(rows)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}

func copyItem(c *models.ContentItem) *models.ContentItem {
	out := *c
	out.VersionFields = c.VersionFields.Clone()
	out.PublishedAt = copyTime(c.PublishedAt)

	return &out
}

func copyVersion(v *models.VersionRecord) *models.VersionRecord {
	out := *v
	out.VersionFields = v.VersionFields.Clone()
	out.PublishedAt = copyTime(v.PublishedAt)

	return &out
}

// ContentStore keeps content items and their version history behind one
// mutex, so a snapshot commit is a single critical section.
type ContentStore struct {
	mu       sync.RWMutex
	items    map[string]*models.ContentItem
	slugs    map[string]string
	versions map[string][]*models.VersionRecord
	hub      Broadcaster
}

// NewContentStore creates an empty ContentStore. hub may be nil.
func NewContentStore(hub Broadcaster) *ContentStore {
	return &ContentStore{
		items:    make(map[string]*models.ContentItem),
		slugs:    make(map[string]string),
		versions: make(map[string][]*models.VersionRecord),
		hub:      hub,
	}
}

// GetContent returns a copy of the live content item.
func (s *ContentStore) GetContent(_ context.Context, contentID string) (*models.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[contentID]
	if !ok {
		return nil, models.ErrContentNotFound
	}

	return copyItem(c), nil
}

// ListContent returns content items ordered by most recently updated.
func (s *ContentStore) ListContent(_ context.Context, opts models.ContentListOpts) ([]models.ContentItem, bool, error) {
	s.mu.RLock()

	matched := make([]models.ContentItem, 0, len(s.items))
	for _, c := range s.items {
		if opts.DepartmentID != "" && c.DepartmentID != opts.DepartmentID {
			continue
		}
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if opts.Type != "" && c.Type != opts.Type {
			continue
		}

		matched = append(matched, *copyItem(c))
	}

	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.ContentItem) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	items, hasMore := page(matched, opts.Limit, opts.Offset)

	return items, hasMore, nil
}

// CreateContent stores the item and its first version.
func (s *ContentStore) CreateContent(_ context.Context, item *models.ContentItem, first *models.VersionRecord) error {
	s.mu.Lock()

	if _, ok := s.items[item.ID]; ok {
		s.mu.Unlock()
		return models.ErrDuplicateKey
	}

	if _, ok := s.slugs[item.Slug]; ok {
		s.mu.Unlock()
		return models.ErrDuplicateSlug
	}

	s.items[item.ID] = copyItem(item)
	s.slugs[item.Slug] = item.ID
	s.versions[item.ID] = []*models.VersionRecord{copyVersion(first)}

	s.mu.Unlock()

	s.publish(item, first)

	return nil
}

// CommitSnapshot performs the compare-and-swap under the write lock.
func (s *ContentStore) CommitSnapshot(
	_ context.Context,
	item *models.ContentItem,
	expectedVersion int,
	record *models.VersionRecord,
) error {
	s.mu.Lock()

	cur, ok := s.items[item.ID]
	if !ok {
		s.mu.Unlock()
		return models.ErrContentNotFound
	}

	if cur.Version != expectedVersion {
		s.mu.Unlock()
		return models.ErrVersionConflict
	}

	history := s.versions[item.ID]
	if record.VersionNumber != len(history)+1 {
		s.mu.Unlock()
		return models.ErrVersionConflict
	}

	if owner, taken := s.slugs[item.Slug]; taken && owner != item.ID {
		s.mu.Unlock()
		return models.ErrDuplicateSlug
	}

	delete(s.slugs, cur.Slug)
	s.slugs[item.Slug] = item.ID

	next := copyItem(item)
	next.Version = record.VersionNumber
	s.items[item.ID] = next

	// Replace the previous record rather than mutating it, so copies handed
	// out earlier never observe the flag change.
	if n := len(history); n > 0 {
		prev := copyVersion(history[n-1])
		prev.IsCurrentVersion = false
		history[n-1] = prev
	}

	s.versions[item.ID] = append(history, copyVersion(record))

	s.mu.Unlock()

	s.publish(item, record)

	return nil
}

func (s *ContentStore) publish(item *models.ContentItem, v *models.VersionRecord) {
	if s.hub == nil {
		return
	}

	data, err := json.Marshal(map[string]any{
		"type":           "content.versioned",
		"department_id":  item.DepartmentID,
		"content_id":     item.ID,
		"version_number": v.VersionNumber,
		"status":         v.Status,
	})
	if err != nil {
		return
	}

	s.hub.BroadcastToDepartment("content.versioned", item.DepartmentID, data)
}

// GetVersion returns a copy of one version record.
func (s *ContentStore) GetVersion(_ context.Context, contentID string, versionNumber int) (*models.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.versions[contentID]
	if versionNumber < 1 || versionNumber > len(history) {
		return nil, models.ErrVersionNotFound
	}

	return copyVersion(history[versionNumber-1]), nil
}

// GetCurrentVersion returns a copy of the current version record.
func (s *ContentStore) GetCurrentVersion(_ context.Context, contentID string) (*models.VersionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.versions[contentID]
	if len(history) == 0 {
		return nil, models.ErrVersionNotFound
	}

	return copyVersion(history[len(history)-1]), nil
}

// ListVersions returns a page of versions, newest first.
func (s *ContentStore) ListVersions(_ context.Context, contentID string, limit, offset int) ([]models.VersionRecord, bool, error) {
	s.mu.RLock()

	history := s.versions[contentID]
	newest := make([]models.VersionRecord, len(history))
	for i, v := range history {
		newest[len(history)-1-i] = *copyVersion(v)
	}

	s.mu.RUnlock()

	out, hasMore := page(newest, limit, offset)

	return out, hasMore, nil
}

// VersionStats aggregates the version history of one content item.
func (s *ContentStore) VersionStats(_ context.Context, contentID string) (*models.VersionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.versions[contentID]
	if len(history) == 0 {
		return &models.VersionStats{}, nil
	}

	first := history[0]
	last := history[len(history)-1]

	stats := &models.VersionStats{
		Count:         len(history),
		FirstAuthorID: first.AuthorID,
		LastAuthorID:  last.AuthorID,
		FirstAt:       copyTime(&first.CreatedAt),
		LastAt:        copyTime(&last.CreatedAt),
	}

	return stats, nil
}
