// Command storefront runs the shop API and its maintenance tasks.
//
//	storefront serve                  # start the HTTP server
//	storefront migrate                # run pending migrations
//	storefront migrate:rollback
//	storefront migrate:status
//	storefront seed                   # demo catalogue
//	storefront route:list
//	storefront admin:create --email ops@example.com --password ...
//	storefront catalog:import 0885909950805 4006381333931
//	storefront catalog:search "ballpoint pen"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Migrations register themselves from init().
	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront and admin API",
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

	rootCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogSearchCmd)
}
