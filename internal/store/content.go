package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deptdocs/revisor/internal/models"
)

const (
	contentPKeyConstraint = "content_items_pkey"
	contentSlugConstraint = "content_items_slug_key"
)

// ContentStore handles content items and their version history. Versions
// live in the same store because every snapshot commit touches both tables
// in one transaction.
type ContentStore struct {
	Base
}

// NewContentStore creates a new ContentStore.
func NewContentStore(base Base) *ContentStore {
	return &ContentStore{Base: base}
}

// validID reports whether id can be a content UUID. Anything else can never
// match a row, so lookups short-circuit to not-found.
func validID(id string) bool {
	_, err := uuid.Parse(id)

	return err == nil
}

// GetContent returns the live content item.
func (s *ContentStore) GetContent(ctx context.Context, contentID string) (*models.ContentItem, error) {
	if !validID(contentID) {
		return nil, models.ErrContentNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+contentColumns+" FROM content_items WHERE id = $1", contentID)

	c, err := scanContent(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrContentNotFound
		}

		return nil, dependency("getting content", err)
	}

	return c, nil
}

// ListContent returns content items ordered by most recently updated.
func (s *ContentStore) ListContent(ctx context.Context, opts models.ContentListOpts) ([]models.ContentItem, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var f filterBuilder
	if opts.DepartmentID != "" {
		f.add("department_id =", opts.DepartmentID)
	}
	if opts.Status != "" {
		f.add("status =", string(opts.Status))
	}
	if opts.Type != "" {
		f.add("type =", string(opts.Type))
	}

	limit := clampLimit(opts.Limit)
	query := fmt.Sprintf("SELECT %s FROM content_items %s ORDER BY updated_at DESC, id LIMIT %s OFFSET %s",
		contentColumns, f.where(), f.next(limit+1), f.next(max(opts.Offset, 0)))

	rows, err := s.Pool.Query(ctx, query, f.args...)
	if err != nil {
		return nil, false, dependency("listing content", err)
	}
	defer rows.Close()

	items, err := collect(rows, scanContent)
	if err != nil {
		return nil, false, dependency("listing content", err)
	}

	items, hasMore := trimPage(items, limit)

	return items, hasMore, nil
}

// CreateContent inserts the content row and its first version in one
// transaction.
func (s *ContentStore) CreateContent(ctx context.Context, item *models.ContentItem, first *models.VersionRecord) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return dependency("creating content", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx, `INSERT INTO content_items
		(id, title, slug, body, type, status, tags, version, department_id, author_id, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		item.ID, item.Title, item.Slug, item.Body, item.Type, item.Status, item.Tags, item.Version,
		item.DepartmentID, item.AuthorID, item.PublishedAt, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return mapContentWriteError("inserting content", err)
	}

	if err := insertVersion(ctx, tx, first); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dependency("committing create content", err)
	}

	s.notifyVersioned(item, first)

	return nil
}

// mapContentWriteError turns constraint violations on content_items into
// conflict errors.
func mapContentWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, contentSlugConstraint):
		return models.ErrDuplicateSlug
	case isUniqueViolation(err, contentPKeyConstraint):
		return models.ErrDuplicateKey
	default:
		return dependency(op, err)
	}
}

func (s *ContentStore) notifyVersioned(item *models.ContentItem, v *models.VersionRecord) {
	s.notify(map[string]any{
		"type":           "content.versioned",
		"department_id":  item.DepartmentID,
		"content_id":     item.ID,
		"version_number": v.VersionNumber,
		"status":         v.Status,
	})
}
