package client

import "context"

// AuditService handles audit log operations. Both calls require an admin key.
type AuditService struct {
	c *Client
}

// Query returns audit log entries matching the given options.
func (s *AuditService) Query(ctx context.Context, opts *AuditQueryOptions) ([]AuditEntry, bool, error) {
	q := query{}
	if opts != nil {
		q.str("resource_type", opts.ResourceType).
			str("resource_id", opts.ResourceID).
			str("action", opts.Action).
			str("user_id", opts.UserID).
			time("since", opts.Since).
			num("limit", opts.Limit).
			num("offset", opts.Offset)
	}
	var resp page[AuditEntry]
	if err := s.c.get(ctx, "/api/v1/audit", q, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Purge deletes audit entries older than retentionDays and returns how many
// were removed. Zero leaves the server default in place.
func (s *AuditService) Purge(ctx context.Context, retentionDays int) (int, error) {
	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := s.c.del(ctx, "/api/v1/audit", query{}.num("retention_days", retentionDays), &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
