package client

import (
	"context"
	"net/url"
)

// ContentService handles content operations. Every write creates a new
// version on the server.
type ContentService struct {
	c *Client
}

func contentPath(id string) string {
	return "/api/v1/content/" + url.PathEscape(id)
}

// List returns content matching opts.
func (s *ContentService) List(ctx context.Context, opts *ContentListOptions) ([]ContentItem, bool, error) {
	q := query{}
	if opts != nil {
		q.str("department_id", opts.DepartmentID).
			str("status", opts.Status).
			str("type", opts.Type).
			num("limit", opts.Limit).
			num("offset", opts.Offset)
	}
	var resp page[ContentItem]
	if err := s.c.get(ctx, "/api/v1/content", q, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Get returns a content item by ID.
func (s *ContentService) Get(ctx context.Context, id string) (*ContentItem, error) {
	var item ContentItem
	if err := s.c.get(ctx, contentPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create creates a content item as version 1.
func (s *ContentService) Create(ctx context.Context, req *CreateContentRequest) (*ContentItem, error) {
	var item ContentItem
	if err := s.c.post(ctx, "/api/v1/content", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies req and returns the new version. IsConflict reports a
// stale ExpectedVersion.
func (s *ContentService) Update(ctx context.Context, id string, req *UpdateContentRequest) (*ContentItem, error) {
	var item ContentItem
	if err := s.c.put(ctx, contentPath(id), req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Publish publishes the content at expectedVersion.
func (s *ContentService) Publish(ctx context.Context, id string, expectedVersion int) (*ContentItem, error) {
	return s.transition(ctx, id, "publish", expectedVersion)
}

// Archive archives the content at expectedVersion.
func (s *ContentService) Archive(ctx context.Context, id string, expectedVersion int) (*ContentItem, error) {
	return s.transition(ctx, id, "archive", expectedVersion)
}

func (s *ContentService) transition(ctx context.Context, id, action string, expectedVersion int) (*ContentItem, error) {
	body := map[string]int{"expected_version": expectedVersion}
	var item ContentItem
	if err := s.c.post(ctx, contentPath(id)+"/"+action, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
