package models

import "time"

// Audit actions emitted by version transitions.
const (
	AuditActionCreate          = "create"
	AuditActionUpdate          = "update"
	AuditActionDelete          = "delete"
	AuditActionVersionCreated  = "version_created"
	AuditActionVersionRestored = "version_restored"
)

// ResourceTypeContent is the audit resource type for content items.
const ResourceTypeContent = "content"

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

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	ResourceType string
	ResourceID   string
	Action       string
	UserID       string
	Since        *time.Time
	Limit        int
	Offset       int
}
