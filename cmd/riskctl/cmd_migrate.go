package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mkdev28/Cropp/migrations"
	pgpkg "github.com/mkdev28/Cropp/pkg/postgres"
)

func newMigrateCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
		Long: `Manage the Postgres schema behind DATABASE_URL. The SQLite registry
creates its own tables and needs no migrations.`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireDatabase(); err != nil {
				return err
			}
			if err := pgpkg.RunMigrations(c.cfg.DatabaseURL, migrations.FS, "."); err != nil {
				return err
			}
			c.logger.Info("migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping stored bundles and assessments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireDatabase(); err != nil {
				return err
			}
			if err := pgpkg.RunMigrationsDown(c.cfg.DatabaseURL, migrations.FS, "."); err != nil {
				return err
			}
			c.logger.Info("migrations rolled back")
			return nil
		},
	})

	return cmd
}

func (c *cli) requireDatabase() error {
	if c.cfg.DatabaseURL == "" {
		return errors.New("migrate needs DATABASE_URL or --database-url")
	}
	return nil
}
