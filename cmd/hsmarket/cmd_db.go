package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hsmarket/storefront/app/repositories"
	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/database/seeders"
	"github.com/hsmarket/storefront/internal/kernel"
	"github.com/hsmarket/storefront/pkg/database"
	"github.com/hsmarket/storefront/pkg/migration"
)

var seedForce bool

// bootDB loads config and opens the configured backend.
func bootDB(ctx context.Context) error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect(ctx)
}

// sqlRunner returns the migration runner, or nil when the driver has no
// SQL schema to manage.
func sqlRunner(ctx context.Context) (*migration.Runner, error) {
	if err := bootDB(ctx); err != nil {
		return nil, err
	}
	if !config.IsSQLDriver() {
		return nil, nil
	}
	return migration.New(database.DB), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending migrations (SQL) or ensure indexes (mongo)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		runner, err := sqlRunner(ctx)
		if err != nil {
			return err
		}
		defer database.Close(context.Background())

		if runner == nil {
			if database.Mongo != nil {
				fmt.Println("Ensuring mongo indexes…")
				return repositories.EnsureMongoIndexes(ctx, database.Mongo)
			}
			fmt.Printf("Nothing to migrate for DB_DRIVER=%s\n", config.DatabaseDriver())
			return nil
		}
		fmt.Println("Running migrations…")
		return runner.Run()
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := sqlRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close(context.Background())
		if runner == nil {
			return fmt.Errorf("migrate:rollback needs a SQL driver, got %s", config.DatabaseDriver())
		}
		fmt.Println("Rolling back last batch…")
		return runner.Rollback()
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := sqlRunner(cmd.Context())
		if err != nil {
			return err
		}
		defer database.Close(context.Background())
		if runner == nil {
			return fmt.Errorf("migrate:status needs a SQL driver, got %s", config.DatabaseDriver())
		}
		return runner.Status()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default categories and flagship product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := bootDB(ctx); err != nil {
			return err
		}
		defer database.Close(context.Background())

		store, err := kernel.OpenStore(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, seeders.Env{
			Catalog: services.NewCatalogService(store, nil),
			Force:   seedForce,
			Out:     os.Stdout,
		})
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "seed default categories even when some exist")
}
