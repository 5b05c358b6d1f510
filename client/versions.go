package client

import (
	"context"
	"strconv"
)

// VersionService handles version history operations.
type VersionService struct {
	c *Client
}

// List returns one page of versions, newest first.
func (s *VersionService) List(ctx context.Context, contentID string, limit, offset int) ([]Version, bool, error) {
	q := query{}.num("limit", limit).num("offset", offset)
	var resp page[Version]
	if err := s.c.get(ctx, contentPath(contentID)+"/versions", q, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Get returns a single version.
func (s *VersionService) Get(ctx context.Context, contentID string, number int) (*Version, error) {
	var v Version
	if err := s.c.get(ctx, contentPath(contentID)+"/versions/"+strconv.Itoa(number), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Restore makes version number current again as a new version.
func (s *VersionService) Restore(ctx context.Context, contentID string, number int) (*ContentItem, error) {
	var item ContentItem
	if err := s.c.post(ctx, contentPath(contentID)+"/versions/"+strconv.Itoa(number)+"/restore", nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Stats returns aggregate history statistics.
func (s *VersionService) Stats(ctx context.Context, contentID string) (*VersionStats, error) {
	var stats VersionStats
	if err := s.c.get(ctx, contentPath(contentID)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Compare returns the field-level differences between two versions.
func (s *VersionService) Compare(ctx context.Context, contentID string, from, to int) (*VersionComparison, error) {
	q := query{}.num("from", from).num("to", to)
	var cmp VersionComparison
	if err := s.c.get(ctx, contentPath(contentID)+"/compare", q, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}
