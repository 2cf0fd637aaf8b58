package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onco-triage-server/internal/config"
	"github.com/onco-triage-server/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the disposition statistics schema",
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL URL (defaults to the server configuration)")
	cmd.PersistentFlags().String("config", "", "server configuration file")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Up(cmd.Context())
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()
			return runner.Down(cmd.Context())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newMigrationRunner(cmd)
			if err != nil {
				return err
			}
			defer runner.Close()

			version, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}

func newMigrationRunner(cmd *cobra.Command) (*database.MigrationRunner, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		configFile, _ := cmd.Flags().GetString("config")
		manager, err := config.NewManagerFromFile(configFile)
		if err != nil {
			return nil, err
		}
		url = manager.GetDatabaseURL()
	}
	return database.NewMigrationRunner(url, logger)
}
