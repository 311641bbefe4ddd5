package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/coastalmech/apflow/internal/cli"
	"github.com/coastalmech/apflow/internal/common"
	"github.com/coastalmech/apflow/internal/config"
	"github.com/coastalmech/apflow/internal/storage"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List the canonical records produced for a batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}
			batch, _ := cmd.Flags().GetString("batch")
			if batch == "" {
				batch = cfg.BatchCode
			}

			store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(cmd.Context()); err != nil {
				return common.NewUserError("failed to migrate database", err)
			}

			records, err := store.ListCanonicalRecords(cmd.Context(), batch)
			if err != nil {
				return common.NewUserError("failed to list records", err)
			}
			if len(records) == 0 {
				fmt.Println(cli.FormatInfo(fmt.Sprintf("No records for batch %s", batch)))
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				"Document", "Vendor", "Type", "Invoice #", "Date",
				"Amount", "GL", "PO", "Job", "WO", "Routing",
			})
			for _, rec := range records {
				t.AppendRow(table.Row{
					rec.Document, rec.VendorCode, rec.Type, rec.InvoiceNumber, rec.InvoiceDate,
					rec.InvoiceAmount.String(), rec.GLAccount, rec.PONumber, rec.JobNumber,
					rec.WONumber, rec.RoutingCode,
				})
			}
			t.Render()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d records in batch %s", len(records), batch)))
			return nil
		},
	}
	cmd.Flags().String("batch", "", "batch code (default: today's)")
	return cmd
}
