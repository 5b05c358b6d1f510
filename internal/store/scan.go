package store

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deptdocs/revisor/internal/models"
)

// contentColumns lists the columns selected for content queries.
const contentColumns = `id, title, slug, body, type, status, tags, version,
	department_id, author_id, published_at, created_at, updated_at`

// versionColumns lists the columns selected for version queries.
const versionColumns = `content_id, version_number, title, slug, body, type, status,
	tags, author_id, changes_summary, is_current_version, published_at, created_at`

const userColumns = `id, username, display_name, email, department_id, role, created_at`

const notificationColumns = `id, user_id, type, title, message, is_read, priority,
	action_url, metadata, created_at`

// scanContent scans a single row into a models.ContentItem.
func scanContent(scan func(dest ...any) error) (*models.ContentItem, error) {
	var c models.ContentItem

	err := scan(
		&c.ID,
		&c.Title,
		&c.Slug,
		&c.Body,
		&c.Type,
		&c.Status,
		&c.Tags,
		&c.Version,
		&c.DepartmentID,
		&c.AuthorID,
		&c.PublishedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.Tags == nil {
		c.Tags = []string{}
	}

	return &c, nil
}

// scanVersion scans a single row into a models.VersionRecord.
func scanVersion(scan func(dest ...any) error) (*models.VersionRecord, error) {
	var v models.VersionRecord

	err := scan(
		&v.ContentID,
		&v.VersionNumber,
		&v.Title,
		&v.Slug,
		&v.Body,
		&v.Type,
		&v.Status,
		&v.Tags,
		&v.AuthorID,
		&v.ChangesSummary,
		&v.IsCurrentVersion,
		&v.PublishedAt,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if v.Tags == nil {
		v.Tags = []string{}
	}

	return &v, nil
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var u models.User

	if err := scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.DepartmentID, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

func scanNotification(scan func(dest ...any) error) (*models.Notification, error) {
	var n models.Notification
	var meta []byte

	err := scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead,
		&n.Priority, &n.ActionURL, &meta, &n.CreatedAt)
	if err != nil {
		return nil, err
	}

	if meta != nil {
		if err := json.Unmarshal(meta, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling notification metadata: %w", err)
		}
	}

	return &n, nil
}

// collect scans all rows with the given scanner.
func collect[T any](rows pgx.Rows, scan func(func(dest ...any) error) (*T, error)) ([]T, error) {
	out := make([]T, 0, 16)

	for rows.Next() {
		v, err := scan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		out = append(out, *v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}
