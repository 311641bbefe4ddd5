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

func failuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List documents skipped during a batch, with reasons",
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

			skips, err := store.ListSkips(cmd.Context(), batch)
			if err != nil {
				return common.NewUserError("failed to list failures", err)
			}
			if len(skips) == 0 {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("No failures in batch %s", batch)))
				return nil
			}

			showPayloads, _ := cmd.Flags().GetBool("payloads")
			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Document", "Reason", "Detail"})
			for _, skip := range skips {
				t.AppendRow(table.Row{skip.Document, skip.Reason, skip.Detail})
			}
			t.Render()

			if showPayloads {
				for _, skip := range skips {
					if skip.RawPayload == "" {
						continue
					}
					fmt.Println(cli.FormatTitle(skip.Document))
					fmt.Println(skip.RawPayload)
				}
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf("%d documents skipped in batch %s", len(skips), batch)))
			return nil
		},
	}
	cmd.Flags().String("batch", "", "batch code (default: today's)")
	cmd.Flags().Bool("payloads", false, "dump raw payloads of unparsable documents")
	return cmd
}
