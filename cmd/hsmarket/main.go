// Command hsmarket runs the storefront API and its maintenance tasks.
//
//	hsmarket serve
//	hsmarket migrate | migrate:rollback | migrate:status
//	hsmarket seed [--force]
//	hsmarket orders:export [--out DIR]
//	hsmarket route:list
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/hsmarket/storefront/database/migrations"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "hsmarket",
	Short:         "hsmarket storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.AddCommand(ordersExportCmd)
}
