package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

var (
	_ domain.NotificationService = (*NotificationService)(nil)
	_ domain.NotificationSink    = (*NotificationService)(nil)
)

// NotificationService gives recipients access to their own notifications.
type NotificationService struct {
	store domain.NotificationStore
	log   *logrus.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store domain.NotificationStore, log *logrus.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// CreateNotification stores a notification (pass-through to store).
func (s *NotificationService) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	return s.store.CreateNotification(ctx, n)
}

// ListNotifications returns the actor's notifications, newest first.
func (s *NotificationService) ListNotifications(
	ctx context.Context, actor models.Actor, opts models.NotificationQueryOpts,
) ([]models.Notification, bool, error) {
	if actor.ID == "" {
		return nil, false, models.ErrForbidden
	}

	list, hasMore, err := s.store.ListNotifications(ctx, actor.ID, opts)
	if err != nil {
		return nil, false, models.NewDependencyError("notification store", err)
	}

	return list, hasMore, nil
}

// MarkRead marks one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, notificationID string) error {
	if actor.ID == "" {
		return models.ErrForbidden
	}

	return models.NewDependencyError("notification store", s.store.MarkRead(ctx, actor.ID, notificationID))
}

// MarkAllRead marks all of the actor's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int, error) {
	if actor.ID == "" {
		return 0, models.ErrForbidden
	}

	n, err := s.store.MarkAllRead(ctx, actor.ID)
	if err != nil {
		return 0, models.NewDependencyError("notification store", err)
	}

	return n, nil
}

// PurgeRead deletes notifications read more than olderThanDays ago.
func (s *NotificationService) PurgeRead(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 1 {
		return 0, models.ErrRetentionDays
	}

	deleted, err := s.store.PurgeRead(ctx, olderThanDays)
	if err != nil {
		return 0, models.NewDependencyError("notification store", err)
	}

	s.log.WithFields(logrus.Fields{
		"older_than_days": olderThanDays,
		"deleted":         deleted,
	}).Info("notification.purge")

	return deleted, nil
}
