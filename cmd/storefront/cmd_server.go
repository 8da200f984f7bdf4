package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := providers.Boot()
		if err != nil {
			return err
		}

		logger.Info("storefront: starting", "env", config.AppEnv(), "port", config.AppPort())
		return newApplication(svc).
			Use(middleware.Maintenance(svc.Secrets.MaintenanceMode, routes.MaintenanceBypass...)).
			Static("/uploads", config.StorageLocalRoot()).
			Serve(cmd.Context(), ":"+config.AppPort())
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Controllers only hold their services, so an empty set is enough
		// to register the routes.
		infos := newApplication(&providers.Services{}).Router().Routes()
		if len(infos) == 0 {
			fmt.Println("No routes registered.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Method", "Path", "Name")
		for _, ri := range infos {
			if err := table.Append(ri.Method, ri.Path, ri.Name); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func newApplication(svc *providers.Services) *app.Application {
	return app.New().Routes(func(r *router.Router) {
		routes.RegisterAPI(r, svc)
	})
}
