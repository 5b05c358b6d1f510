package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deptdocs/revisor/internal/models"
)

// insertVersion writes one immutable version row. A primary key collision
// means another writer already produced this version number.
func insertVersion(ctx context.Context, tx pgx.Tx, v *models.VersionRecord) error {
	_, err := tx.Exec(ctx, `INSERT INTO content_versions
		(content_id, version_number, title, slug, body, type, status, tags,
		 author_id, changes_summary, is_current_version, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		v.ContentID, v.VersionNumber, v.Title, v.Slug, v.Body, v.Type, v.Status, v.Tags,
		v.AuthorID, v.ChangesSummary, v.IsCurrentVersion, v.PublishedAt, v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.ErrVersionConflict
		}

		return dependency("inserting version", err)
	}

	return nil
}

// CommitSnapshot advances the content row from expectedVersion to
// record.VersionNumber and appends record as the new current version. The
// conditional UPDATE is the compare-and-swap: when it matches no row the
// transaction is abandoned and nothing is written.
func (s *ContentStore) CommitSnapshot(
	ctx context.Context,
	item *models.ContentItem,
	expectedVersion int,
	record *models.VersionRecord,
) error {
	if !validID(item.ID) {
		return models.ErrContentNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return dependency("committing snapshot", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, `UPDATE content_items
		SET title = $3, slug = $4, body = $5, type = $6, status = $7, tags = $8,
		    version = $9, published_at = $10, updated_at = $11
		WHERE id = $1 AND version = $2`,
		item.ID, expectedVersion,
		item.Title, item.Slug, item.Body, item.Type, item.Status, item.Tags,
		record.VersionNumber, item.PublishedAt, item.UpdatedAt,
	)
	if err != nil {
		return mapContentWriteError("advancing content version", err)
	}

	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, tx, item.ID)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE content_versions SET is_current_version = FALSE WHERE content_id = $1 AND is_current_version",
		item.ID,
	); err != nil {
		return dependency("clearing current version", err)
	}

	if err := insertVersion(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return dependency("committing snapshot", err)
	}

	s.notifyVersioned(item, record)

	return nil
}

// missOrConflict distinguishes a vanished content row from a lost race.
func (s *ContentStore) missOrConflict(ctx context.Context, tx pgx.Tx, contentID string) error {
	var exists bool

	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM content_items WHERE id = $1)", contentID).Scan(&exists); err != nil {
		return dependency("checking content existence", err)
	}

	if !exists {
		return models.ErrContentNotFound
	}

	return models.ErrVersionConflict
}

// GetVersion returns one version record.
func (s *ContentStore) GetVersion(ctx context.Context, contentID string, versionNumber int) (*models.VersionRecord, error) {
	if !validID(contentID) {
		return nil, models.ErrVersionNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		"SELECT "+versionColumns+" FROM content_versions WHERE content_id = $1 AND version_number = $2",
		contentID, versionNumber,
	)

	return scanOneVersion(row, "getting version")
}

// GetCurrentVersion returns the version flagged as current.
func (s *ContentStore) GetCurrentVersion(ctx context.Context, contentID string) (*models.VersionRecord, error) {
	if !validID(contentID) {
		return nil, models.ErrVersionNotFound
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		"SELECT "+versionColumns+" FROM content_versions WHERE content_id = $1 AND is_current_version",
		contentID,
	)

	return scanOneVersion(row, "getting current version")
}

func scanOneVersion(row pgx.Row, op string) (*models.VersionRecord, error) {
	v, err := scanVersion(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVersionNotFound
		}

		return nil, dependency(op, err)
	}

	return v, nil
}

// ListVersions returns a page of versions, newest first.
func (s *ContentStore) ListVersions(ctx context.Context, contentID string, limit, offset int) ([]models.VersionRecord, bool, error) {
	if !validID(contentID) {
		return []models.VersionRecord{}, false, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit = clampLimit(limit)

	rows, err := s.Pool.Query(ctx,
		"SELECT "+versionColumns+` FROM content_versions WHERE content_id = $1
		ORDER BY version_number DESC LIMIT $2 OFFSET $3`,
		contentID, limit+1, max(offset, 0),
	)
	if err != nil {
		return nil, false, dependency("listing versions", err)
	}
	defer rows.Close()

	versions, err := collect(rows, scanVersion)
	if err != nil {
		return nil, false, dependency("listing versions", err)
	}

	versions, hasMore := trimPage(versions, limit)

	return versions, hasMore, nil
}

// VersionStats aggregates the version history of one content item. It
// returns zero stats when there are no versions.
func (s *ContentStore) VersionStats(ctx context.Context, contentID string) (*models.VersionStats, error) {
	if !validID(contentID) {
		return &models.VersionStats{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, dependency("version stats", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // read-only transaction.

	var (
		stats       models.VersionStats
		first, last *string
		firstAt     *time.Time
		lastAt      *time.Time
	)

	err = tx.QueryRow(ctx, `SELECT
			COUNT(*),
			(SELECT author_id FROM content_versions WHERE content_id = $1 ORDER BY version_number ASC LIMIT 1),
			(SELECT author_id FROM content_versions WHERE content_id = $1 ORDER BY version_number DESC LIMIT 1),
			MIN(created_at),
			MAX(created_at)
		FROM content_versions WHERE content_id = $1`,
		contentID,
	).Scan(&stats.Count, &first, &last, &firstAt, &lastAt)
	if err != nil {
		return nil, dependency("version stats", fmt.Errorf("scanning: %w", err))
	}

	if stats.Count == 0 {
		return &models.VersionStats{}, nil
	}

	if first != nil {
		stats.FirstAuthorID = *first
	}
	if last != nil {
		stats.LastAuthorID = *last
	}
	stats.FirstAt = firstAt
	stats.LastAt = lastAt

	return &stats, nil
}
