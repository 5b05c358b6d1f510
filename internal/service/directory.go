package service

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/metrics"
	"github.com/deptdocs/revisor/internal/models"
)

var _ domain.UserDirectory = (*CachedDirectory)(nil)

// Directory cache defaults.
const (
	DefaultDirectoryCacheSize = 1024
	DefaultDirectoryCacheTTL  = 5 * time.Minute
)

// CachedDirectory wraps a UserDirectory with an expiring LRU over GetUser.
// Only successful lookups are cached. Department listings pass through.
type CachedDirectory struct {
	next  domain.UserDirectory
	cache *expirable.LRU[string, models.User]
}

// NewCachedDirectory creates a CachedDirectory. Non-positive size or ttl
// select the defaults.
func NewCachedDirectory(next domain.UserDirectory, size int, ttl time.Duration) *CachedDirectory {
	if size <= 0 {
		size = DefaultDirectoryCacheSize
	}

	if ttl <= 0 {
		ttl = DefaultDirectoryCacheTTL
	}

	return &CachedDirectory{
		next:  next,
		cache: expirable.NewLRU[string, models.User](size, nil, ttl),
	}
}

// GetUser returns the user, from cache when possible.
func (d *CachedDirectory) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if u, ok := d.cache.Get(userID); ok {
		metrics.DirectoryCacheLookups.WithLabelValues("hit").Inc()

		return &u, nil
	}

	metrics.DirectoryCacheLookups.WithLabelValues("miss").Inc()

	u, err := d.next.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	d.cache.Add(userID, *u)

	return u, nil
}

// ListDepartmentMembers passes through to the wrapped directory.
func (d *CachedDirectory) ListDepartmentMembers(ctx context.Context, departmentID string) ([]models.User, error) {
	return d.next.ListDepartmentMembers(ctx, departmentID)
}

// Invalidate drops a cached user.
func (d *CachedDirectory) Invalidate(userID string) {
	d.cache.Remove(userID)
}

// author resolves an author for read-side enrichment. Any failure yields
// nil. Failures other than an unknown user are logged and counted.
func (s *ComparisonService) author(ctx context.Context, userID string) *models.AuthorInfo {
	if userID == "" {
		return nil
	}

	u, err := s.directory.GetUser(ctx, userID)
	switch {
	case err == nil && u != nil:
		return u.AuthorInfo()
	case err == nil, errors.Is(err, models.ErrNotFound):
		return nil
	}

	metrics.DirectoryCacheLookups.WithLabelValues("error").Inc()
	s.log.WithError(models.NewDependencyError("user directory", err)).
		WithField("user_id", userID).
		Warn("author lookup failed")

	return nil
}
