package models

import "time"

// VersionRecord is an immutable snapshot of a content item's versionable
// fields. Only IsCurrentVersion ever changes after insert, and only from true
// to false.
type VersionRecord struct {
	ContentID     string `json:"content_id"`
	VersionNumber int    `json:"version_number"`
	VersionFields
	AuthorID         string     `json:"author_id"`
	ChangesSummary   string     `json:"changes_summary,omitempty"`
	IsCurrentVersion bool       `json:"is_current_version"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AuthorInfo is the public identity of a version author.
type AuthorInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// EnrichedVersion is a VersionRecord with its author resolved. Author is nil
// when the directory could not resolve the author.
type EnrichedVersion struct {
	VersionRecord
	Author *AuthorInfo `json:"author"`
}

// ChangeType describes how a field differs between two versions.
type ChangeType string

// Change types.
const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// VersionDiff is a single field-level difference.
type VersionDiff struct {
	Field      string     `json:"field"`
	OldValue   any        `json:"old_value"`
	NewValue   any        `json:"new_value"`
	ChangeType ChangeType `json:"change_type"`
}

// VersionComparison is the result of comparing two versions of one content item.
type VersionComparison struct {
	ContentID    string          `json:"content_id"`
	FromVersion  int             `json:"from_version"`
	ToVersion    int             `json:"to_version"`
	From         EnrichedVersion `json:"from"`
	To           EnrichedVersion `json:"to"`
	Diffs        []VersionDiff   `json:"diffs"`
	TotalChanges int             `json:"total_changes"`
}

// VersionStats aggregates the version history of a content item. All fields
// are zero when the content has no versions.
type VersionStats struct {
	Count         int         `json:"count"`
	FirstAuthorID string      `json:"first_author_id,omitempty"`
	LastAuthorID  string      `json:"last_author_id,omitempty"`
	FirstAuthor   *AuthorInfo `json:"first_author"`
	LastAuthor    *AuthorInfo `json:"last_author"`
	FirstAt       *time.Time  `json:"first_at,omitempty"`
	LastAt        *time.Time  `json:"last_at,omitempty"`
}
