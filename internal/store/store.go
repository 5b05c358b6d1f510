// Package store provides the PostgreSQL implementations of the revisor
// stores.
//
// Each store owns one table family (content and versions, audit,
// notifications, users) and embeds shared helpers (Pool, logger) via the
// Base struct. Stores never import each other; shared logic lives in this
// file or in helpers.go.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/db"
	"github.com/deptdocs/revisor/internal/dbpool"
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction so multi-statement reads see
// one snapshot.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notify sends a pg_notify on the revisor_events channel (best-effort,
// post-commit). payload must carry "type" and a recipient key.
func (b *Base) notify(payload map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		b.Log.WithError(err).Warn("failed to encode event payload")
		return
	}

	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", db.EventsChannel, string(data)); err != nil {
		b.Log.WithError(err).WithField("type", payload["type"]).Warn("failed to send event notification")
	}
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation,
// optionally restricted to one constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

// dependency wraps a driver error as a store failure unless it already
// carries a category.
func dependency(op string, err error) error {
	return models.NewDependencyError("postgres", fmt.Errorf("%s: %w", op, err))
}

var (
	_ domain.ContentStore      = (*ContentStore)(nil)
	_ domain.VersionStore      = (*ContentStore)(nil)
	_ domain.AuditStore        = (*AuditStore)(nil)
	_ domain.NotificationStore = (*NotificationStore)(nil)
	_ domain.UserStore         = (*UserStore)(nil)
)
