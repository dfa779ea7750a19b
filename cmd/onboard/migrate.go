package main

import (
	"github.com/spf13/cobra"

	"github.com/oneeyedreaper/onboard/internal/infra/database"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	for _, dir := range []struct {
		direction database.Direction
		short     string
	}{
		{database.MigrateUp, "Apply all pending migrations"},
		{database.MigrateDown, "Roll back the latest migration"},
		{database.MigrateStatus, "Print the migration status"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   string(dir.direction),
			Short: dir.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return database.Migrate(cmd.Context(), cfg.Postgres.DSN(), dir.direction)
			},
		})
	}
	return cmd
}
