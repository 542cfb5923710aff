package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hsmarket/storefront/app/services"
	"github.com/hsmarket/storefront/config"
	"github.com/hsmarket/storefront/internal/kernel"
	"github.com/hsmarket/storefront/pkg/database"
)

var exportDir string

var ordersExportCmd = &cobra.Command{
	Use:   "orders:export",
	Short: "Write every order to hsmarket-orders-<date>.csv",
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
		orders := services.NewOrderService(store, nil, services.OrderConfig{UnitPrice: config.OrderUnitPrice()})

		export, err := orders.ExportOrders(ctx, time.Now())
		if err != nil {
			return err
		}
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(exportDir, export.Filename)
		if err := os.WriteFile(path, export.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Println("Wrote", path)
		return nil
	},
}

func init() {
	ordersExportCmd.Flags().StringVar(&exportDir, "out", ".", "directory to write the CSV into")
}
