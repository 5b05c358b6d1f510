package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/config"
	"github.com/deptdocs/revisor/internal/db"
	"github.com/deptdocs/revisor/internal/db/migrations"
	"github.com/deptdocs/revisor/internal/dbpool"
	"github.com/deptdocs/revisor/internal/domain"
	"github.com/deptdocs/revisor/internal/memstore"
	"github.com/deptdocs/revisor/internal/store"
	"github.com/deptdocs/revisor/internal/ws"
)

// stores groups the backend-specific store implementations.
type stores struct {
	pool          *dbpool.Pool // nil for the memory backend
	content       domain.ContentStore
	versions      domain.VersionStore
	audit         domain.AuditStore
	notifications domain.NotificationStore
	users         domain.UserStore
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openPoolNoMigrate connects to Postgres.
func openPoolNoMigrate(ctx context.Context, cfg *config.Config) (*dbpool.Pool, error) {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns)) //nolint:gosec // validated to 2..200.
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// openPool connects to Postgres and applies pending migrations.
func openPool(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*dbpool.Pool, error) {
	pool, err := openPoolNoMigrate(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		pool.Close()

		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return pool, nil
}

// openStores builds the configured backend. The memory stores push realtime
// events straight to hub; Postgres stores go through NOTIFY and the bridge.
func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger, hub *ws.Hub) (*stores, error) {
	if !cfg.UsesPostgres() {
		content := memstore.NewContentStore(hub)

		return &stores{
			content:       content,
			versions:      content,
			audit:         memstore.NewAuditStore(),
			notifications: memstore.NewNotificationStore(hub),
			users:         memstore.NewUserStore(),
		}, nil
	}

	pool, err := openPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	base := store.Base{Pool: pool, Log: log}
	content := store.NewContentStore(base)

	return &stores{
		pool:          pool,
		content:       content,
		versions:      content,
		audit:         store.NewAuditStore(base),
		notifications: store.NewNotificationStore(base),
		users:         store.NewUserStore(base),
	}, nil
}
