package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/coastalmech/apflow/internal/glrules"
	"github.com/coastalmech/apflow/internal/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadVendorAccounts(t *testing.T) {
	path := writeTempCSV(t, `vendor_code,vendor_name,gl_account,wo_gl_account,phase_code,cost_type
ACME01,ACME Supply Co,5010,6010,010,M
GULF02,Gulf Coast Fasteners,5020,,020,M

`)

	accounts, err := LoadVendorAccounts(path)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	acme := accounts["ACME01"]
	assert.Equal(t, "ACME Supply Co", acme.VendorName)
	assert.Equal(t, "5010", acme.GLAccount)
	assert.Equal(t, "6010", acme.WOGLAccount)
	assert.Equal(t, "010", acme.PhaseCode)
	assert.Equal(t, "M", acme.CostType)

	// Blank WO GL account stays blank; the cascade depends on it.
	assert.Empty(t, accounts["GULF02"].WOGLAccount)
}

func TestLoadVendorAccountsShortRow(t *testing.T) {
	path := writeTempCSV(t, "vendor_code,vendor_name\nACME01,ACME Supply Co\n")
	_, err := LoadVendorAccounts(path)
	assert.Error(t, err)
}

func TestLoadVendorMatches(t *testing.T) {
	path := writeTempCSV(t, `document,vendor_code,vendor_name,address_score,matched_by
Invoice_001.PDF,ACME01,ACME Supply Co,95,contact + address
invoice_002.pdf,GULF02,Gulf Coast Fasteners,80,address only
`)

	matches, err := LoadVendorMatches(path)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Keys are normalized: lower-cased, extension stripped.
	m, ok := matches["invoice_001"]
	require.True(t, ok)
	assert.Equal(t, "ACME01", m.VendorCode)
	assert.Equal(t, 95, m.AddressScore)
	assert.Equal(t, model.MatchContactAndAddress, m.MatchedBy)

	assert.Equal(t, model.MatchAddressOnly, matches["invoice_002"].MatchedBy)
}

func TestLoadVendorMatchesBadScore(t *testing.T) {
	path := writeTempCSV(t, "document,vendor_code,vendor_name,address_score,matched_by\ninv.pdf,A,A Co,high,contact only\n")
	_, err := LoadVendorMatches(path)
	assert.Error(t, err)
}

func writeTempWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "table.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadRoutingTable(t *testing.T) {
	path := writeTempWorkbook(t, [][]any{
		{"ordered_by", "distribution", "routing_code"},
		{"Dana Whitfield", "E", "RT-14"},
		{"marcus hale", "m", "RT-03"},
		{"", "E", "RT-99"},
	})

	table, err := LoadRoutingTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "RT-14", table[glrules.RoutingKey{OrderedBy: "DANA WHITFIELD", Distribution: "E"}])
	assert.Equal(t, "RT-03", table[glrules.RoutingKey{OrderedBy: "MARCUS HALE", Distribution: "M"}])
}

func TestLoadJobListing(t *testing.T) {
	path := writeTempWorkbook(t, [][]any{
		{"job_number", "pm_code", "pm_name"},
		{"24.60", "DW", "Dana Whitfield"},
		{"25.10", "MH", "Marcus Hale"},
	})

	pmByJob, pmNames, err := LoadJobListing(path)
	require.NoError(t, err)

	assert.Equal(t, "DW", pmByJob["24.60"])
	assert.Equal(t, "MH", pmByJob["25.10"])
	assert.Equal(t, "Dana Whitfield", pmNames["DW"])
	assert.Equal(t, "Marcus Hale", pmNames["MH"])
}

func TestLoadRoutingTableMissingFile(t *testing.T) {
	_, err := LoadRoutingTable(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
