package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneeyedreaper/onboard/internal/infra/app"
	"github.com/oneeyedreaper/onboard/internal/infra/config"
	"github.com/oneeyedreaper/onboard/internal/infra/database"
)

type configLoader func() (*config.AppConfig, error)

func newServeCommand(load configLoader) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx := cmd.Context()
			if migrate {
				if err := database.Migrate(ctx, cfg.Postgres.DSN(), database.MigrateUp); err != nil {
					return err
				}
			}

			application, err := app.New(ctx, cfg, version)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			return application.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
