package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/models"
)

// AuditStore provides data access for the audit_log table.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// AppendAudit inserts an audit log entry and fills in its ID and timestamp.
func (s *AuditStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var metaJSON []byte
	if entry.Metadata != nil {
		var err error

		metaJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling audit metadata: %w", err)
		}
	}

	var userID *string
	if entry.UserID != "" {
		userID = &entry.UserID
	}

	err := s.Pool.QueryRow(ctx, `
		INSERT INTO audit_log (user_id, action, resource_type, resource_id, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		userID, entry.Action, entry.ResourceType, entry.ResourceID, entry.Description, metaJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return dependency("inserting audit entry", err)
	}

	return nil
}

// buildAuditFilter builds WHERE clause and args from AuditQueryOpts.
func buildAuditFilter(opts models.AuditQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.ResourceType != "" {
		conditions = append(conditions, "resource_type = $"+strconv.Itoa(argIdx))
		args = append(args, opts.ResourceType)
		argIdx++
	}
	if opts.ResourceID != "" {
		conditions = append(conditions, "resource_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.ResourceID)
		argIdx++
	}
	if opts.UserID != "" {
		conditions = append(conditions, "user_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.UserID)
		argIdx++
	}
	if opts.Action != "" {
		conditions = append(conditions, "action = $"+strconv.Itoa(argIdx))
		args = append(args, opts.Action)
		argIdx++
	}
	if opts.Since != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// QueryAudit returns audit entries matching the given filters.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) QueryAudit(
	ctx context.Context, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, dependency("querying audit log", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	where, args, argIdx := buildAuditFilter(opts)
	limit := clampLimit(opts.Limit)

	query := fmt.Sprintf(
		"SELECT id, user_id, action, resource_type, resource_id, description, metadata, created_at FROM audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, max(opts.Offset, 0))

	entries, err := scanAuditRows(ctx, tx, query, args, s.Log)
	if err != nil {
		return nil, false, dependency("querying audit log", err)
	}

	entries, hasMore := trimPage(entries, limit)

	return entries, hasMore, nil
}

// scanAuditRows executes a query and scans audit entries from the result.
func scanAuditRows(ctx context.Context, tx pgx.Tx, query string, args []any, log *logrus.Logger) ([]models.AuditEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, 16)
	for rows.Next() {
		var e models.AuditEntry
		var metaJSON []byte
		var userID *string

		if err := rows.Scan(&e.ID, &userID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Description, &metaJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if userID != nil {
			e.UserID = *userID
		}
		if metaJSON != nil {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				log.WithError(err).WithField("audit_id", e.ID).Warn("failed to unmarshal audit metadata")
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes audit entries older than retentionDays in batches.
// Returns the number of deleted entries.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeOldEntriesBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeOldEntriesBatch(ctx context.Context, retentionDays int) (int, error) {
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM audit_log WHERE ctid IN (
			SELECT ctid FROM audit_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, dependency("purging audit entries", err)
	}

	return int(tag.RowsAffected()), nil
}
