package main

// Run database migrations:
//   go run ./cmd/migrate up
//   go run ./cmd/migrate down
//   go run ./cmd/migrate status

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/storage/db"
)

var databaseURL string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the resume analyzer database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (default is DATABASE_URL)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return db.RunMigrations(ctx, sqlDB)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return db.RollbackMigration(ctx, sqlDB)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied and pending migrations",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				return db.MigrationStatus(ctx, sqlDB)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withDB(func(ctx context.Context, sqlDB *sql.DB) error {
				v, err := db.MigrationVersion(ctx, sqlDB)
				if err != nil {
					return err
				}
				fmt.Printf("schema version: %d\n", v)
				return nil
			}),
		},
	)
	return root
}

func withDB(run func(ctx context.Context, sqlDB *sql.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		url := databaseURL
		if url == "" {
			url = config.Load().DatabaseURL
		}
		if url == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sqlDB, err := db.Connect(ctx, url, db.OptionsFromEnv(db.DefaultMigrateOptions()))
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer sqlDB.Close()

		return run(ctx, sqlDB)
	}
}
