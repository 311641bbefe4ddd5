package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/coastalmech/apflow/internal/glrules"
	"github.com/coastalmech/apflow/internal/model"
)

// LoadVendorAccounts reads the vendor lookup CSV mapping vendor codes
// to their configured accounting tuple. Columns: vendor_code,
// vendor_name, gl_account, wo_gl_account, phase_code, cost_type.
func LoadVendorAccounts(path string) (map[string]model.VendorAccounts, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor lookup table: %w", err)
	}

	accounts := make(map[string]model.VendorAccounts, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("vendor lookup row %d: expected 6 columns, got %d", i+2, len(row))
		}
		code := strings.TrimSpace(row[0])
		if code == "" {
			continue
		}
		accounts[code] = model.VendorAccounts{
			VendorCode:  code,
			VendorName:  strings.TrimSpace(row[1]),
			GLAccount:   strings.TrimSpace(row[2]),
			WOGLAccount: strings.TrimSpace(row[3]),
			PhaseCode:   strings.TrimSpace(row[4]),
			CostType:    strings.TrimSpace(row[5]),
		}
	}
	return accounts, nil
}

// LoadVendorMatches reads the matcher collaborator's output CSV, keyed
// by normalized document key. Columns: document, vendor_code,
// vendor_name, address_score, matched_by.
func LoadVendorMatches(path string) (map[string]model.VendorMatch, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor matches: %w", err)
	}

	matches := make(map[string]model.VendorMatch, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, fmt.Errorf("vendor match row %d: expected 5 columns, got %d", i+2, len(row))
		}
		document := strings.TrimSpace(row[0])
		if document == "" {
			continue
		}
		score := 0
		if s := strings.TrimSpace(row[3]); s != "" {
			score, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("vendor match row %d: bad address score %q", i+2, row[3])
			}
		}
		key := model.DocumentKey(document)
		matches[key] = model.VendorMatch{
			Document:     key,
			VendorCode:   strings.TrimSpace(row[1]),
			VendorName:   strings.TrimSpace(row[2]),
			AddressScore: score,
			MatchedBy:    model.MatchQuality(strings.TrimSpace(row[4])),
		}
	}
	return matches, nil
}

// LoadRoutingTable reads the approval-routing workbook. The first sheet
// holds (ordered_by, distribution, routing_code) rows; keys are
// upper-cased so lookups are case-insensitive.
func LoadRoutingTable(path string) (map[glrules.RoutingKey]string, error) {
	rows, err := readWorkbookRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing workbook: %w", err)
	}

	table := make(map[glrules.RoutingKey]string, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		orderedBy := strings.ToUpper(strings.TrimSpace(row[0]))
		distribution := strings.ToUpper(strings.TrimSpace(row[1]))
		code := strings.TrimSpace(row[2])
		if orderedBy == "" || distribution == "" || code == "" {
			continue
		}
		table[glrules.RoutingKey{OrderedBy: orderedBy, Distribution: distribution}] = code
	}
	return table, nil
}

// LoadJobListing reads the project-manager job listing workbook. The
// first sheet holds (job_number, pm_code, pm_name) rows. Returns the
// job -> PM code map plus the PM code -> full name map the routing
// resolver needs.
func LoadJobListing(path string) (pmByJob, pmNames map[string]string, err error) {
	rows, err := readWorkbookRows(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read job listing workbook: %w", err)
	}

	pmByJob = make(map[string]string, len(rows))
	pmNames = make(map[string]string)
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		job := strings.TrimSpace(row[0])
		code := strings.TrimSpace(row[1])
		name := strings.TrimSpace(row[2])
		if job == "" || code == "" {
			continue
		}
		pmByJob[job] = code
		if name != "" {
			pmNames[code] = name
		}
	}
	return pmByJob, pmNames, nil
}

// readCSV returns the data rows of a CSV file, header excluded.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied table path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// readWorkbookRows returns the data rows of the first sheet, header
// excluded.
func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}
