package client

import "time"

// ContentItem is the live version of a content item.
type ContentItem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Body         string     `json:"body"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Tags         []string   `json:"tags"`
	Version      int        `json:"version"`
	DepartmentID string     `json:"department_id"`
	AuthorID     string     `json:"author_id"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateContentRequest is the payload for creating content. Status defaults
// to draft and DepartmentID to the caller's department.
type CreateContentRequest struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Body         string   `json:"body,omitempty"`
	Type         string   `json:"type"`
	Status       string   `json:"status,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DepartmentID string   `json:"department_id,omitempty"`
}

// UpdateContentRequest changes the non-nil fields of a content item that is
// currently at ExpectedVersion.
type UpdateContentRequest struct {
	Title           *string   `json:"title,omitempty"`
	Slug            *string   `json:"slug,omitempty"`
	Body            *string   `json:"body,omitempty"`
	Type            *string   `json:"type,omitempty"`
	Status          *string   `json:"status,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	ExpectedVersion int       `json:"expected_version"`
	ChangesSummary  string    `json:"changes_summary,omitempty"`
}

// ContentListOptions filters content listings.
type ContentListOptions struct {
	DepartmentID string
	Status       string
	Type         string
	Limit        int
	Offset       int
}

// Author is the public identity of a version author.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Version is an immutable snapshot with its author resolved. Author is nil
// when the server could not resolve it.
type Version struct {
	ContentID        string     `json:"content_id"`
	VersionNumber    int        `json:"version_number"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Body             string     `json:"body"`
	Type             string     `json:"type"`
	Status           string     `json:"status"`
	Tags             []string   `json:"tags"`
	AuthorID         string     `json:"author_id"`
	ChangesSummary   string     `json:"changes_summary,omitempty"`
	IsCurrentVersion bool       `json:"is_current_version"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	Author           *Author    `json:"author"`
}

// VersionDiff is a single field-level difference.
type VersionDiff struct {
	Field      string `json:"field"`
	OldValue   any    `json:"old_value"`
	NewValue   any    `json:"new_value"`
	ChangeType string `json:"change_type"`
}

// VersionComparison is the result of comparing two versions.
type VersionComparison struct {
	ContentID    string        `json:"content_id"`
	FromVersion  int           `json:"from_version"`
	ToVersion    int           `json:"to_version"`
	From         Version       `json:"from"`
	To           Version       `json:"to"`
	Diffs        []VersionDiff `json:"diffs"`
	TotalChanges int           `json:"total_changes"`
}

// VersionStats aggregates a content item's history.
type VersionStats struct {
	Count         int        `json:"count"`
	FirstAuthorID string     `json:"first_author_id,omitempty"`
	LastAuthorID  string     `json:"last_author_id,omitempty"`
	FirstAuthor   *Author    `json:"first_author"`
	LastAuthor    *Author    `json:"last_author"`
	FirstAt       *time.Time `json:"first_at,omitempty"`
	LastAt        *time.Time `json:"last_at,omitempty"`
}

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           int64          `json:"id"`
	UserID       string         `json:"user_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditQueryOptions holds filters for querying the audit log.
type AuditQueryOptions struct {
	ResourceType string
	ResourceID   string
	Action       string
	UserID       string
	Since        *time.Time
	Limit        int
	Offset       int
}

// Notification is a message addressed to the caller.
type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsRead    bool           `json:"is_read"`
	Priority  string         `json:"priority"`
	ActionURL string         `json:"action_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Backend       string  `json:"backend"`
	Database      string  `json:"database"`
	SchemaVersion int     `json:"schema_version"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// ReadyResponse is returned by the readiness endpoint.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// page is the paginated list envelope used by every list endpoint.
type page[T any] struct {
	Data    []T  `json:"data"`
	HasMore bool `json:"has_more"`
}
