package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deptdocs/revisor/internal/db"
	"github.com/deptdocs/revisor/internal/db/migrations"
)

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			if !cfg.UsesPostgres() {
				return errors.New("migrate requires STORE_BACKEND=postgres")
			}

			ctx := cmd.Context()

			if statusOnly {
				pool, err := openPoolNoMigrate(ctx, cfg)
				if err != nil {
					return err
				}
				defer pool.Close()

				applied, err := db.AppliedVersion(ctx, pool, migrations.FS)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "applied: %d\nembedded: %d\n", applied, db.SchemaVersion())

				return nil
			}

			pool, err := openPool(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema is at version %d\n", db.SchemaVersion())

			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the applied and embedded schema versions without migrating")

	return cmd
}
