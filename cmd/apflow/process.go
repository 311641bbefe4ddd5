package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coastalmech/apflow/internal/approval"
	"github.com/coastalmech/apflow/internal/cli"
	"github.com/coastalmech/apflow/internal/common"
	"github.com/coastalmech/apflow/internal/config"
	"github.com/coastalmech/apflow/internal/engine"
	"github.com/coastalmech/apflow/internal/glrules"
	"github.com/coastalmech/apflow/internal/ingest"
	"github.com/coastalmech/apflow/internal/storage"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a full invoice batch: reconcile, review, resolve, persist",
		RunE:  runProcess,
	}
	cmd.Flags().String("batch", "", "batch code (default: today's date MMDDYY)")
	cmd.Flags().Int("workers", 0, "extraction worker count (default: CPU count)")
	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if batch, _ := cmd.Flags().GetString("batch"); batch != "" {
		viper.Set("batch.code", batch)
	}

	cfg, err := config.Load()
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}

	tables, routing, err := loadReferenceTables(cfg)
	if err != nil {
		return err
	}

	batch, err := ingest.LoadBatch(
		cfg.Inputs.PayloadDir,
		cfg.Inputs.OCRDir,
		cfg.Inputs.POCandidateDir,
		cfg.Inputs.POTextDir)
	if err != nil {
		return common.NewUserError("failed to load batch inputs", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return common.NewUserError("failed to open database", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return common.NewUserError("failed to migrate database", err)
	}

	workers, _ := cmd.Flags().GetInt("workers")
	engCfg := engine.Config{
		CompanyCode:   cfg.CompanyCode,
		BatchCode:     cfg.BatchCode,
		POGateTimeout: cfg.POGateTimeout,
		Workers:       workers,
		Rules: glrules.Config{
			ShopGLAccount: cfg.ShopGLAccount,
			WOMarker:      cfg.WOMarker,
			ShopRemarks:   glrules.DefaultConfig().ShopRemarks,
		},
	}

	eng := engine.New(store,
		approval.NewMailbox(cfg.MailboxDir, "vendor"),
		approval.NewMailbox(cfg.MailboxDir, "po"),
		routing, tables, engCfg)

	bar := progressbar.NewOptions(len(batch.Payloads),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Reconciling invoices...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
	eng.SetProgressFunc(func(done, _ int) {
		_ = bar.Set(done)
	})

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx = handler.HandleInterrupts(ctx)

	summary, err := eng.ProcessBatch(ctx, batch)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return common.NewUserError("batch run failed", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Batch %s complete: %d saved, %d skipped of %d documents",
		summary.BatchCode, summary.Saved, summary.Skipped, summary.Total)))
	if summary.POBypassed {
		fmt.Println(cli.FormatWarning("Purchase-order review timed out; identifiers were accepted unreviewed"))
	}
	return nil
}

// loadReferenceTables reads the mandatory vendor tables and the
// optional routing workbook pair.
func loadReferenceTables(cfg *config.Config) (engine.Tables, *glrules.RoutingResolver, error) {
	accounts, err := config.LoadVendorAccounts(cfg.Tables.VendorLookupCSV)
	if err != nil {
		return engine.Tables{}, nil, common.NewUserError("failed to load vendor lookup table", err)
	}
	matches, err := config.LoadVendorMatches(cfg.Tables.VendorMatchCSV)
	if err != nil {
		return engine.Tables{}, nil, common.NewUserError("failed to load vendor matches", err)
	}
	tables := engine.Tables{VendorAccounts: accounts, VendorMatches: matches}

	if cfg.Tables.RoutingWorkbook == "" {
		return tables, nil, nil
	}
	routingTable, err := config.LoadRoutingTable(cfg.Tables.RoutingWorkbook)
	if err != nil {
		return engine.Tables{}, nil, common.NewUserError("failed to load routing workbook", err)
	}
	var pmByJob, pmNames map[string]string
	if cfg.Tables.JobListingWorkbook != "" {
		pmByJob, pmNames, err = config.LoadJobListing(cfg.Tables.JobListingWorkbook)
		if err != nil {
			return engine.Tables{}, nil, common.NewUserError("failed to load job listing workbook", err)
		}
	}
	return tables, glrules.NewRoutingResolver(routingTable, pmByJob, pmNames), nil
}
