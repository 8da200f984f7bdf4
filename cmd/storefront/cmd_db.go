package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

// storefront migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		return migration.New(database.DB, os.Stdout).Run()
	},
}

// storefront migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		return migration.New(database.DB, os.Stdout).Rollback()
	},
}

// storefront migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		rows, err := migration.New(database.DB, os.Stdout).Status()
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Migration", "Ran", "Batch")
		for _, row := range rows {
			ran, batch := "No", ""
			if row.Ran {
				ran, batch = "Yes", strconv.Itoa(row.Batch)
			}
			if err := table.Append(row.Name, ran, batch); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

// storefront seed
var seedCmd = &cobra.Command{
	Use:   "seed [name...]",
	Short: "Run database seeders (all when no name is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		if err := seeders.Run(database.DB, os.Stdout, args...); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		return nil
	},
}
