package models

import "time"

// NotificationType identifies why a notification was sent.
type NotificationType string

// Notification types.
const (
	NotificationContentCreated   NotificationType = "content_created"
	NotificationContentUpdated   NotificationType = "content_updated"
	NotificationContentPublished NotificationType = "content_published"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	Priority  string           `json:"priority"`
	ActionURL string           `json:"action_url,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationQueryOpts holds filters for listing a user's notifications.
type NotificationQueryOpts struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}
