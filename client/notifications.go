package client

import (
	"context"
	"net/url"
)

// NotificationService reads and acknowledges the caller's notifications.
type NotificationService struct {
	c *Client
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]Notification, bool, error) {
	q := query{}.flag("unread", unreadOnly).num("limit", limit).num("offset", offset)
	var resp page[Notification]
	if err := s.c.get(ctx, "/api/v1/notifications", q, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.c.post(ctx, "/api/v1/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every notification as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int, error) {
	var resp struct {
		Updated int `json:"updated"`
	}
	if err := s.c.post(ctx, "/api/v1/notifications/read-all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}
