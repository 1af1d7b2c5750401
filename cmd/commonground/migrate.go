package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ryan-Har/commonground/database"
	"github.com/Ryan-Har/commonground/internal/logutil"
)

func newMigrateCmd(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the database schema up or down",
		Long: `Apply or revert the embedded schema migrations for DATABASE_DRIVER.

Example usage:
  commonground migrate up       # Apply pending migrations
  commonground migrate down     # Revert every migration
  commonground migrate version  # Print the applied version`,
	}

	for _, dir := range []database.Direction{database.Up, database.Down} {
		migrateCmd.AddCommand(&cobra.Command{
			Use:   string(dir),
			Short: fmt.Sprintf("Migrate the schema %s", dir),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.migrate(cmd.Context(), dir)
			},
		})
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbs, err := openDatabases(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer dbs.Close()

			v, dirty, err := database.Version(dbs.sqlDB, dbs.driver)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty %t\n", v, dirty)
			return nil
		},
	})

	return migrateCmd
}

func (a *app) migrate(ctx context.Context, dir database.Direction) error {
	dbs, err := openDatabases(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer dbs.Close()

	defer logutil.NewTimingLogger(a.log, time.Now(), "migrated database", "direction", dir, "driver", dbs.driver)()
	if err := database.Migrate(dbs.sqlDB, dbs.driver, dir); err != nil {
		return logutil.LogAndWrapErr(a.log, "migration failed", err, "direction", dir)
	}
	return nil
}
