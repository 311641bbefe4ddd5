package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// InputPaths locates the per-document collaborator outputs a batch run
// consumes.
type InputPaths struct {
	OCRDir         string
	PayloadDir     string
	POCandidateDir string
	POTextDir      string
}

// TablePaths locates the reference tables joined into every record.
type TablePaths struct {
	VendorLookupCSV    string
	VendorMatchCSV     string
	RoutingWorkbook    string
	JobListingWorkbook string
}

// Config is the resolved runtime configuration for one batch run.
type Config struct {
	DatabasePath string
	MailboxDir   string
	CompanyCode  string
	BatchCode    string
	// POGateTimeout bounds the wait for purchase-order review; expiry
	// proceeds as approved. The vendor gate never times out.
	POGateTimeout time.Duration
	ShopGLAccount string
	WOMarker      string
	Inputs        InputPaths
	Tables        TablePaths
}

// Load resolves configuration from viper (config file, environment,
// bound flags) and applies defaults.
func Load() (*Config, error) {
	viper.SetDefault("database.path", "~/.local/share/apflow/apflow.db")
	viper.SetDefault("mailbox.dir", "~/.local/share/apflow/mailboxes")
	viper.SetDefault("batch.company_code", "10")
	viper.SetDefault("approval.po_timeout", time.Hour)
	viper.SetDefault("rules.shop_gl_account", "1200")
	viper.SetDefault("rules.wo_marker", "2025")

	cfg := &Config{
		DatabasePath:  ExpandPath(viper.GetString("database.path")),
		MailboxDir:    ExpandPath(viper.GetString("mailbox.dir")),
		CompanyCode:   viper.GetString("batch.company_code"),
		BatchCode:     viper.GetString("batch.code"),
		POGateTimeout: viper.GetDuration("approval.po_timeout"),
		ShopGLAccount: viper.GetString("rules.shop_gl_account"),
		WOMarker:      viper.GetString("rules.wo_marker"),
		Inputs: InputPaths{
			OCRDir:         ExpandPath(viper.GetString("inputs.ocr_dir")),
			PayloadDir:     ExpandPath(viper.GetString("inputs.payload_dir")),
			POCandidateDir: ExpandPath(viper.GetString("inputs.po_candidate_dir")),
			POTextDir:      ExpandPath(viper.GetString("inputs.po_text_dir")),
		},
		Tables: TablePaths{
			VendorLookupCSV:    ExpandPath(viper.GetString("tables.vendor_lookup")),
			VendorMatchCSV:     ExpandPath(viper.GetString("tables.vendor_matches")),
			RoutingWorkbook:    ExpandPath(viper.GetString("tables.routing_workbook")),
			JobListingWorkbook: ExpandPath(viper.GetString("tables.job_listing")),
		},
	}

	// Batch code defaults to the run date; it doubles as the ledger
	// import batch identifier.
	if cfg.BatchCode == "" {
		cfg.BatchCode = time.Now().Format("010206")
	}

	if cfg.Inputs.PayloadDir == "" {
		return nil, fmt.Errorf("inputs.payload_dir is required")
	}
	if cfg.Tables.VendorLookupCSV == "" {
		return nil, fmt.Errorf("tables.vendor_lookup is required")
	}
	if cfg.Tables.VendorMatchCSV == "" {
		return nil, fmt.Errorf("tables.vendor_matches is required")
	}

	return cfg, nil
}
