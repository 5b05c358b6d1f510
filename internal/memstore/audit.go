package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/deptdocs/revisor/internal/models"
)

// AuditStore is an append-only in-memory audit log.
type AuditStore struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
	nextID  int64
	now     func() time.Time
}

// NewAuditStore creates an empty AuditStore.
func NewAuditStore() *AuditStore {
	return &AuditStore{now: time.Now}
}

// AppendAudit records an entry and fills in its ID and timestamp.
func (s *AuditStore) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	stored := *entry
	stored.Metadata = maps.Clone(entry.Metadata)
	s.entries = append(s.entries, stored)

	return nil
}

// QueryAudit returns matching entries, newest first.
func (s *AuditStore) QueryAudit(_ context.Context, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	s.mu.RLock()

	matched := make([]models.AuditEntry, 0, 16)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]

		if opts.ResourceType != "" && e.ResourceType != opts.ResourceType {
			continue
		}
		if opts.ResourceID != "" && e.ResourceID != opts.ResourceID {
			continue
		}
		if opts.Action != "" && e.Action != opts.Action {
			continue
		}
		if opts.UserID != "" && e.UserID != opts.UserID {
			continue
		}
		if opts.Since != nil && e.CreatedAt.Before(*opts.Since) {
			continue
		}

		e.Metadata = maps.Clone(e.Metadata)
		matched = append(matched, e)
	}

	s.mu.RUnlock()

	out, hasMore := page(matched, opts.Limit, opts.Offset)

	return out, hasMore, nil
}

// PurgeOldEntries drops entries older than retentionDays.
func (s *AuditStore) PurgeOldEntries(_ context.Context, retentionDays int) (int, error) {
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e models.AuditEntry) bool {
		return e.CreatedAt.Before(cutoff)
	})

	return before - len(s.entries), nil
}
