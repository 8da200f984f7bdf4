package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

var (
	importUpdate  bool
	importPrice   int64
	importStock   int
	importWorkers int
	searchLimit   int
)

func init() {
	catalogImportCmd.Flags().BoolVar(&importUpdate, "update", false, "fill empty fields of products that already exist")
	catalogImportCmd.Flags().Int64Var(&importPrice, "price", -1, "price in cents to set on every imported product")
	catalogImportCmd.Flags().IntVar(&importStock, "stock", -1, "stock to set on every imported product")
	catalogImportCmd.Flags().IntVar(&importWorkers, "workers", 4, "concurrent imports")

	catalogSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
}

type importRow struct {
	barcode string
	product *models.Product
	outcome services.ImportOutcome
	err     error
}

// storefront catalog:import <barcode>...
var catalogImportCmd = &cobra.Command{
	Use:   "catalog:import <barcode>...",
	Short: "Import products by barcode from the lookup providers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := providers.Boot()
		if err != nil {
			return err
		}

		opts := services.ImportOptions{Update: importUpdate}
		if importPrice >= 0 {
			opts.Price = &importPrice
		}
		if importStock >= 0 {
			opts.Stock = &importStock
		}

		ctx := cmd.Context()
		rows := make([]importRow, len(args))
		pool := workerpool.New(importWorkers)

		for i, code := range args {
			i, code := i, code
			err := pool.Submit(ctx, func() {
				p, outcome, err := svc.Importer.ImportByBarcode(ctx, code, opts)
				rows[i] = importRow{barcode: code, product: p, outcome: outcome, err: err}
			})
			if err != nil {
				pool.Shutdown()
				return err
			}
		}
		pool.Shutdown()

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Barcode", "Result", "ID", "Name")
		var failed int
		for _, row := range rows {
			cells := []any{row.barcode, string(row.outcome), "", ""}
			if row.err != nil {
				failed++
				cells[1] = "error: " + row.err.Error()
			} else {
				cells[2] = strconv.FormatUint(uint64(row.product.ID), 10)
				cells[3] = row.product.Name
			}
			if err := table.Append(cells...); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("catalog:import: %d of %d barcodes failed", failed, len(rows))
		}
		return nil
	},
}

// storefront catalog:search <query>
var catalogSearchCmd = &cobra.Command{
	Use:   "catalog:search <query>",
	Short: "Search the lookup providers without importing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := providers.Boot()
		if err != nil {
			return err
		}

		results, err := svc.Lookup.Search(cmd.Context(), args[0], searchLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return errors.New("no results")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Source", "Barcode", "External ID", "Name", "Brand")
		for _, r := range results {
			if err := table.Append(r.Source, r.Barcode, r.ExternalID, r.Name, r.Brand); err != nil {
				return err
			}
		}
		return table.Render()
	},
}
