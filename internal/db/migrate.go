// Package db owns the schema (goose migrations embedded from migrations/)
// and the LISTEN/NOTIFY bridge that feeds the WebSocket hub.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/deptdocs/revisor/internal/dbpool"
)

// newProvider opens a database/sql handle over the pool's connection string,
// since goose only speaks database/sql. The caller closes the returned DB.
func newProvider(pool *dbpool.Pool, fsys fs.FS) (*goose.Provider, *sql.DB, error) {
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return nil, nil, fmt.Errorf("opening sql.DB for migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		sqlDB.Close()

		return nil, nil, fmt.Errorf("creating goose provider: %w", err)
	}

	return provider, sqlDB, nil
}

// RunMigrations applies all pending migrations from the provided filesystem.
// The fsys should contain goose-annotated SQL files (e.g. "001_initial.sql").
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	provider, sqlDB, err := newProvider(pool, fsys)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", r.Source.Version, r.Source.Path, r.Error)
		}

		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     r.Source.Path,
			"duration": r.Duration,
		}).Info("migration applied")
	}

	if len(results) == 0 {
		log.Debug("all migrations already applied")
	}

	return nil
}

// AppliedVersion reports the highest migration version recorded in the
// database.
func AppliedVersion(ctx context.Context, pool *dbpool.Pool, fsys fs.FS) (int64, error) {
	provider, sqlDB, err := newProvider(pool, fsys)
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return v, nil
}
