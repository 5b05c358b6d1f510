// Package models defines the data types of the content versioning service.
package models

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// ContentType classifies a content item.
type ContentType string

// Content types.
const (
	ContentTypeSOP          ContentType = "sop"
	ContentTypeGuide        ContentType = "guide"
	ContentTypeAnnouncement ContentType = "announcement"
	ContentTypeResource     ContentType = "resource"
	ContentTypeTraining     ContentType = "training"
	ContentTypePolicy       ContentType = "policy"
)

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeSOP, ContentTypeGuide, ContentTypeAnnouncement,
		ContentTypeResource, ContentTypeTraining, ContentTypePolicy:
		return true
	}

	return false
}

// ContentStatus is the publication state of a content item.
type ContentStatus string

// Content statuses.
const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ContentStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished || s == StatusArchived
}

// Field limits.
const (
	maxTitleLen = 500
	maxSlugLen  = 200
	maxBodyLen  = 1 << 20
	maxTags     = 50
	maxTagLen   = 64
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// VersionFields are the versionable attributes copied into every snapshot.
type VersionFields struct {
	Title  string        `json:"title"`
	Slug   string        `json:"slug"`
	Body   string        `json:"body"`
	Type   ContentType   `json:"type"`
	Status ContentStatus `json:"status"`
	Tags   []string      `json:"tags"`
}

// Clone returns a deep copy so snapshots never share the tags slice.
func (f VersionFields) Clone() VersionFields {
	f.Tags = slices.Clone(f.Tags)
	if f.Tags == nil {
		f.Tags = []string{}
	}

	return f
}

// Validate checks required fields and limits.
func (f *VersionFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrMissingTitle
	}

	if len(f.Title) > maxTitleLen {
		return ErrFieldTooLong("title", maxTitleLen)
	}

	if f.Slug == "" {
		return ErrMissingSlug
	}

	if len(f.Slug) > maxSlugLen {
		return ErrFieldTooLong("slug", maxSlugLen)
	}

	if !slugPattern.MatchString(f.Slug) {
		return ErrInvalidSlug
	}

	if f.Type == "" {
		return ErrMissingType
	}

	if !f.Type.Valid() {
		return ErrInvalidType
	}

	if f.Status == "" {
		return ErrMissingStatus
	}

	if !f.Status.Valid() {
		return ErrInvalidStatus
	}

	if len(f.Body) > maxBodyLen {
		return ErrFieldTooLong("body", maxBodyLen)
	}

	if len(f.Tags) > maxTags {
		return ErrFieldTooLong("tags", maxTags)
	}

	for _, tag := range f.Tags {
		if len(tag) > maxTagLen {
			return ErrFieldTooLong("tag", maxTagLen)
		}
	}

	return nil
}

// NormalizeTags trims tags, drops empty entries and removes duplicates while
// keeping first-occurrence order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if _, dup := seen[t]; dup {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// ContentItem is the live, mutable document. Version mirrors the number of
// the current VersionRecord.
type ContentItem struct {
	ID string `json:"id"`
	VersionFields
	Version      int        `json:"version"`
	DepartmentID string     `json:"department_id"`
	AuthorID     string     `json:"author_id"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PublicPath returns the portal path of the content under the given prefix.
func (c *ContentItem) PublicPath(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/" + c.Slug
}

// CreateContentRequest is the payload for creating a content item.
type CreateContentRequest struct {
	Title        string        `json:"title"`
	Slug         string        `json:"slug"`
	Body         string        `json:"body"`
	Type         ContentType   `json:"type"`
	Status       ContentStatus `json:"status,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	DepartmentID string        `json:"department_id,omitempty"`
}

// Validate checks that required fields are present and within limits.
func (r *CreateContentRequest) Validate() error {
	fields := r.Fields()

	return fields.Validate()
}

// Fields returns the versionable fields of the request with defaults applied.
func (r *CreateContentRequest) Fields() VersionFields {
	status := r.Status
	if status == "" {
		status = StatusDraft
	}

	return VersionFields{
		Title:  r.Title,
		Slug:   r.Slug,
		Body:   r.Body,
		Type:   r.Type,
		Status: status,
		Tags:   NormalizeTags(r.Tags),
	}
}

// ContentPatch carries the fields an update changes. Nil means unchanged.
type ContentPatch struct {
	Title  *string        `json:"title,omitempty"`
	Slug   *string        `json:"slug,omitempty"`
	Body   *string        `json:"body,omitempty"`
	Type   *ContentType   `json:"type,omitempty"`
	Status *ContentStatus `json:"status,omitempty"`
	Tags   *[]string      `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *ContentPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Body == nil &&
		p.Type == nil && p.Status == nil && p.Tags == nil
}

// Apply returns base with the patch merged in.
func (p *ContentPatch) Apply(base VersionFields) VersionFields {
	out := base.Clone()

	if p.Title != nil {
		out.Title = *p.Title
	}

	if p.Slug != nil {
		out.Slug = *p.Slug
	}

	if p.Body != nil {
		out.Body = *p.Body
	}

	if p.Type != nil {
		out.Type = *p.Type
	}

	if p.Status != nil {
		out.Status = *p.Status
	}

	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}

	return out
}

// UpdateContentRequest is the payload for PUT /content/:id.
type UpdateContentRequest struct {
	ContentPatch
	ExpectedVersion int    `json:"expected_version"`
	ChangesSummary  string `json:"changes_summary,omitempty"`
}

// Validate checks the optimistic-concurrency precondition and patch values.
func (r *UpdateContentRequest) Validate() error {
	if r.ExpectedVersion <= 0 {
		return ErrMissingExpected
	}

	if r.IsEmpty() {
		return ErrEmptyUpdate
	}

	if r.Type != nil && !r.Type.Valid() {
		return ErrInvalidType
	}

	if r.Status != nil && !r.Status.Valid() {
		return ErrInvalidStatus
	}

	if len(r.ChangesSummary) > 1000 {
		return ErrFieldTooLong("changes_summary", 1000)
	}

	return nil
}

// TransitionRequest is the payload for publish and archive.
type TransitionRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

// Validate checks TransitionRequest fields.
func (r *TransitionRequest) Validate() error {
	if r.ExpectedVersion <= 0 {
		return ErrMissingExpected
	}

	return nil
}

// ContentListOpts holds filters for listing content.
type ContentListOpts struct {
	DepartmentID string
	Status       ContentStatus
	Type         ContentType
	Limit        int
	Offset       int
}
