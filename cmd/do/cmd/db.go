package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pennypet/server/internal/db"
)

const defaultConnection = "./data/pennypet.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

type dbFlags struct {
	driver     string
	connection string
}

func MigrateCmd() *cobra.Command {
	_ = godotenv.Load()

	flags := &dbFlags{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}
	cmd.PersistentFlags().StringVar(&flags.driver, "driver", envOr("DB_DRIVER", "sqlite"), "database driver (sqlite or pgx)")
	cmd.PersistentFlags().StringVar(&flags.connection, "db", envOr("DB_CONNECTION", defaultConnection), "database connection string")

	cmd.AddCommand(
		migrateSubCmd(flags, "up", "Apply all pending migrations", db.RunMigrations),
		migrateSubCmd(flags, "down", "Roll back the latest migration", db.MigrateDown),
		migrateSubCmd(flags, "status", "Show applied and pending migrations", db.MigrationStatus),
	)

	return cmd
}

func migrateSubCmd(flags *dbFlags, use, short string, run func(*sql.DB, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Init(cmd.Context(), flags.driver, flags.connection)
			if err != nil {
				return err
			}
			defer database.Close()

			return run(database.DB, flags.driver)
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func ensureDir(path string) error {
	err := os.MkdirAll(path, 0755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}
