package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilelabs/labs/internal/app"
	"github.com/nilelabs/labs/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded schema to the configured database: the SQLite file
named by storage.path, or the PostgreSQL database at storage.dsn when
storage.driver is postgres.

Migrations are idempotent; running them against an up-to-date database
changes nothing.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().String("path", "", "SQLite database path (defaults to storage.path)")
	migrateCmd.Flags().String("dsn", "", "PostgreSQL connection string; selects postgres when set")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	dsn := cfg.Storage.DSN
	if override, _ := cmd.Flags().GetString("dsn"); override != "" {
		dsn = override
		cfg.Storage.Driver = config.StoragePostgres
	}
	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := app.OpenPostgres(cmd.Context(), dsn)
		if err != nil {
			return fmt.Errorf("failed to migrate postgres: %w", err)
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Migrated postgres")
		return nil
	}

	path := cfg.Storage.Path
	if override, _ := cmd.Flags().GetString("path"); override != "" {
		path = override
	}

	db, err := app.OpenSQLite(path)
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s\n", path)
	return nil
}
