package memstore

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deptdocs/revisor/internal/models"
)

type storedNotification struct {
	models.Notification
	readAt time.Time
}

// NotificationStore keeps notifications per recipient and pushes a
// notification.created event to the hub after each insert.
type NotificationStore struct {
	mu     sync.RWMutex
	byUser map[string][]*storedNotification
	hub    Broadcaster
	now    func() time.Time
}

// NewNotificationStore creates an empty NotificationStore. hub may be nil.
func NewNotificationStore(hub Broadcaster) *NotificationStore {
	return &NotificationStore{
		byUser: make(map[string][]*storedNotification),
		hub:    hub,
		now:    time.Now,
	}
}

// CreateNotification stores a copy of n with a fresh ID.
func (s *NotificationStore) CreateNotification(_ context.Context, n *models.Notification) (*models.Notification, error) {
	created := *n
	created.ID = uuid.NewString()
	created.IsRead = false
	created.CreatedAt = s.now().UTC()
	created.Metadata = maps.Clone(n.Metadata)
	if created.Priority == "" {
		created.Priority = models.PriorityNormal
	}

	s.mu.Lock()
	s.byUser[created.UserID] = append(s.byUser[created.UserID], &storedNotification{Notification: created})
	s.mu.Unlock()

	if s.hub != nil {
		data, err := json.Marshal(map[string]any{
			"type":    "notification.created",
			"user_id": created.UserID,
			"id":      created.ID,
			"title":   created.Title,
		})
		if err == nil {
			s.hub.BroadcastToUser("notification.created", created.UserID, data)
		}
	}

	out := created
	out.Metadata = maps.Clone(created.Metadata)

	return &out, nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *NotificationStore) ListNotifications(
	_ context.Context, userID string, opts models.NotificationQueryOpts,
) ([]models.Notification, bool, error) {
	s.mu.RLock()

	list := s.byUser[userID]
	matched := make([]models.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		n := list[i].Notification
		if opts.UnreadOnly && n.IsRead {
			continue
		}

		n.Metadata = maps.Clone(n.Metadata)
		matched = append(matched, n)
	}

	s.mu.RUnlock()

	out, hasMore := page(matched, opts.Limit, opts.Offset)

	return out, hasMore, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationStore) MarkRead(_ context.Context, userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.byUser[userID] {
		if n.ID != notificationID {
			continue
		}

		if !n.IsRead {
			n.IsRead = true
			n.readAt = s.now()
		}

		return nil
	}

	return models.ErrNotificationNotFound
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0

	for _, n := range s.byUser[userID] {
		if !n.IsRead {
			n.IsRead = true
			n.readAt = now
			count++
		}
	}

	return count, nil
}

// PurgeRead deletes notifications read more than olderThanDays ago.
func (s *NotificationStore) PurgeRead(_ context.Context, olderThanDays int) (int, error) {
	cutoff := s.now().AddDate(0, 0, -olderThanDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0

	for userID, list := range s.byUser {
		before := len(list)
		list = slices.DeleteFunc(list, func(n *storedNotification) bool {
			return n.IsRead && n.readAt.Before(cutoff)
		})
		purged += before - len(list)

		if len(list) == 0 {
			delete(s.byUser, userID)
		} else {
			s.byUser[userID] = list
		}
	}

	return purged, nil
}
