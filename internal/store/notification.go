package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deptdocs/revisor/internal/models"
)

// NotificationStore provides data access for the notifications table.
type NotificationStore struct {
	Base
}

// NewNotificationStore creates a NotificationStore.
func NewNotificationStore(base Base) *NotificationStore {
	return &NotificationStore{Base: base}
}

// CreateNotification inserts a notification and publishes a
// notification.created event for the recipient after commit.
func (s *NotificationStore) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if !validID(n.UserID) {
		return nil, models.ErrUserNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var metaJSON []byte
	if n.Metadata != nil {
		var err error

		metaJSON, err = json.Marshal(n.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling notification metadata: %w", err)
		}
	}

	priority := n.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	row := s.Pool.QueryRow(ctx, `INSERT INTO notifications
		(user_id, type, title, message, priority, action_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+notificationColumns,
		n.UserID, n.Type, n.Title, n.Message, priority, n.ActionURL, metaJSON,
	)

	created, err := scanNotification(row.Scan)
	if err != nil {
		return nil, dependency("inserting notification", err)
	}

	s.notify(map[string]any{
		"type":    "notification.created",
		"user_id": created.UserID,
		"id":      created.ID,
		"title":   created.Title,
	})

	return created, nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *NotificationStore) ListNotifications(
	ctx context.Context, userID string, opts models.NotificationQueryOpts,
) ([]models.Notification, bool, error) {
	if !validID(userID) {
		return []models.Notification{}, false, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var f filterBuilder
	f.add("user_id =", userID)
	if opts.UnreadOnly {
		f.conditions = append(f.conditions, "NOT is_read")
	}

	limit := clampLimit(opts.Limit)
	query := fmt.Sprintf("SELECT %s FROM notifications %s ORDER BY created_at DESC, id LIMIT %s OFFSET %s",
		notificationColumns, f.where(), f.next(limit+1), f.next(max(opts.Offset, 0)))

	rows, err := s.Pool.Query(ctx, query, f.args...)
	if err != nil {
		return nil, false, dependency("listing notifications", err)
	}
	defer rows.Close()

	items, err := collect(rows, scanNotification)
	if err != nil {
		return nil, false, dependency("listing notifications", err)
	}

	items, hasMore := trimPage(items, limit)

	return items, hasMore, nil
}

// MarkRead marks one of the user's notifications as read. Notifications of
// other users are reported as not found.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	if !validID(userID) || !validID(notificationID) {
		return models.ErrNotificationNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var id string

	err := s.Pool.QueryRow(ctx, `UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
		RETURNING id`,
		notificationID, userID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotificationNotFound
		}

		return dependency("marking notification read", err)
	}

	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if !validID(userID) {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		"UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND NOT is_read",
		userID,
	)
	if err != nil {
		return 0, dependency("marking notifications read", err)
	}

	return int(tag.RowsAffected()), nil
}

// PurgeRead deletes read notifications whose read time is older than the
// given number of days, in batches.
func (s *NotificationStore) PurgeRead(ctx context.Context, olderThanDays int) (int, error) {
	var total int

	for {
		batchCtx, cancel := withTimeout(ctx)

		tag, err := s.Pool.Exec(batchCtx,
			`DELETE FROM notifications WHERE ctid IN (
				SELECT ctid FROM notifications
				WHERE is_read AND read_at < NOW() - make_interval(days => $1)
				LIMIT $2
			)`,
			olderThanDays, purgeBatchSize,
		)

		cancel()

		if err != nil {
			return total, dependency("purging notifications", err)
		}

		deleted := int(tag.RowsAffected())
		total += deleted

		if deleted < purgeBatchSize {
			return total, nil
		}
	}
}
