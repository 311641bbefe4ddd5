package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coastalmech/apflow/internal/model"
)

// moneyToNull maps the explicit absent state to SQL NULL.
func moneyToNull(m model.Money) sql.NullInt64 {
	return sql.NullInt64{Int64: m.Cents, Valid: m.Valid}
}

func nullToMoney(n sql.NullInt64) model.Money {
	if !n.Valid {
		return model.Money{}
	}
	return model.MoneyFromCents(n.Int64)
}

// SaveCanonicalRecord upserts one reconciled record. Re-running a batch
// replaces its previous rows rather than duplicating them.
func (s *SQLiteStorage) SaveCanonicalRecord(ctx context.Context, rec model.CanonicalRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(&rec); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canonical_records (
			document, batch_code, company_code, vendor_code, vendor_name,
			invoice_type, invoice_number, invoice_date, gl_date,
			invoice_amount_cents, amount_before_taxes_cents, tax_amount_cents, shipping_charges_cents,
			po_number, job_number, wo_number, remarks,
			gl_account, phase_code, cost_type, wo_flag, routing_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document, batch_code) DO UPDATE SET
			company_code = excluded.company_code,
			vendor_code = excluded.vendor_code,
			vendor_name = excluded.vendor_name,
			invoice_type = excluded.invoice_type,
			invoice_number = excluded.invoice_number,
			invoice_date = excluded.invoice_date,
			gl_date = excluded.gl_date,
			invoice_amount_cents = excluded.invoice_amount_cents,
			amount_before_taxes_cents = excluded.amount_before_taxes_cents,
			tax_amount_cents = excluded.tax_amount_cents,
			shipping_charges_cents = excluded.shipping_charges_cents,
			po_number = excluded.po_number,
			job_number = excluded.job_number,
			wo_number = excluded.wo_number,
			remarks = excluded.remarks,
			gl_account = excluded.gl_account,
			phase_code = excluded.phase_code,
			cost_type = excluded.cost_type,
			wo_flag = excluded.wo_flag,
			routing_code = excluded.routing_code`,
		rec.Document, rec.BatchCode, rec.CompanyCode, rec.VendorCode, rec.VendorName,
		string(rec.Type), rec.InvoiceNumber, rec.InvoiceDate, rec.GLDate,
		moneyToNull(rec.InvoiceAmount), moneyToNull(rec.AmountBeforeTaxes),
		moneyToNull(rec.TaxAmount), moneyToNull(rec.ShippingCharges),
		rec.PONumber, rec.JobNumber, rec.WONumber, rec.Remarks,
		rec.GLAccount, rec.PhaseCode, rec.CostType, rec.WOFlag, rec.RoutingCode)
	if err != nil {
		return fmt.Errorf("failed to save canonical record %s: %w", rec.Document, err)
	}
	return nil
}

// ListCanonicalRecords returns every record in a batch, ordered by
// document key.
func (s *SQLiteStorage) ListCanonicalRecords(ctx context.Context, batchCode string) ([]model.CanonicalRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchCode, "batchCode"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document, batch_code, company_code, vendor_code, vendor_name,
			invoice_type, invoice_number, invoice_date, gl_date,
			invoice_amount_cents, amount_before_taxes_cents, tax_amount_cents, shipping_charges_cents,
			po_number, job_number, wo_number, remarks,
			gl_account, phase_code, cost_type, wo_flag, routing_code
		FROM canonical_records
		WHERE batch_code = ?
		ORDER BY document`, batchCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.CanonicalRecord
	for rows.Next() {
		var rec model.CanonicalRecord
		var invoiceType string
		var invoice, subtotal, tax, shipping sql.NullInt64
		if err := rows.Scan(
			&rec.Document, &rec.BatchCode, &rec.CompanyCode, &rec.VendorCode, &rec.VendorName,
			&invoiceType, &rec.InvoiceNumber, &rec.InvoiceDate, &rec.GLDate,
			&invoice, &subtotal, &tax, &shipping,
			&rec.PONumber, &rec.JobNumber, &rec.WONumber, &rec.Remarks,
			&rec.GLAccount, &rec.PhaseCode, &rec.CostType, &rec.WOFlag, &rec.RoutingCode,
		); err != nil {
			return nil, fmt.Errorf("failed to scan canonical record: %w", err)
		}
		rec.Type = model.InvoiceType(invoiceType)
		rec.InvoiceAmount = nullToMoney(invoice)
		rec.AmountBeforeTaxes = nullToMoney(subtotal)
		rec.TaxAmount = nullToMoney(tax)
		rec.ShippingCharges = nullToMoney(shipping)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate canonical records: %w", err)
	}
	return records, nil
}

// RecordSkip appends one entry to the batch's failure log.
func (s *SQLiteStorage) RecordSkip(ctx context.Context, batchCode string, skip model.SkippedDocument) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(batchCode, "batchCode"); err != nil {
		return err
	}
	if err := validateString(skip.Document, "skip.Document"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO skipped_documents (document, batch_code, reason, detail, raw_payload)
		VALUES (?, ?, ?, ?, ?)`,
		skip.Document, batchCode, string(skip.Reason), skip.Detail, skip.RawPayload)
	if err != nil {
		return fmt.Errorf("failed to record skip for %s: %w", skip.Document, err)
	}
	return nil
}

// ListSkips returns the failure log for a batch in insertion order.
func (s *SQLiteStorage) ListSkips(ctx context.Context, batchCode string) ([]model.SkippedDocument, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(batchCode, "batchCode"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document, reason, detail, raw_payload
		FROM skipped_documents
		WHERE batch_code = ?
		ORDER BY id`, batchCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list skips: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var skips []model.SkippedDocument
	for rows.Next() {
		var skip model.SkippedDocument
		var reason string
		if err := rows.Scan(&skip.Document, &reason, &skip.Detail, &skip.RawPayload); err != nil {
			return nil, fmt.Errorf("failed to scan skip: %w", err)
		}
		skip.Reason = model.SkipReason(reason)
		skips = append(skips, skip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skips: %w", err)
	}
	return skips, nil
}

// BatchRun summarizes one engine invocation for the audit trail.
type BatchRun struct {
	RunID            string
	BatchCode        string
	StartedAt        time.Time
	CompletedAt      *time.Time
	DocumentsTotal   int
	DocumentsSaved   int
	DocumentsSkipped int
	POGateBypassed   bool
}

// StartBatchRun records the beginning of an engine run.
func (s *SQLiteStorage) StartBatchRun(ctx context.Context, runID, batchCode string, total int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_runs (run_id, batch_code, started_at, documents_total)
		VALUES (?, ?, ?, ?)`,
		runID, batchCode, time.Now().UTC(), total)
	if err != nil {
		return fmt.Errorf("failed to start batch run: %w", err)
	}
	return nil
}

// CompleteBatchRun stores the final counters for a run.
func (s *SQLiteStorage) CompleteBatchRun(ctx context.Context, runID string, saved, skipped int, poBypassed bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE batch_runs
		SET completed_at = ?, documents_saved = ?, documents_skipped = ?, po_gate_bypassed = ?
		WHERE run_id = ?`,
		time.Now().UTC(), saved, skipped, poBypassed, runID)
	if err != nil {
		return fmt.Errorf("failed to complete batch run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check batch run update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("batch run %s not found", runID)
	}
	return nil
}

// GetBatchRun fetches one run by id.
func (s *SQLiteStorage) GetBatchRun(ctx context.Context, runID string) (*BatchRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	var run BatchRun
	var completed sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, batch_code, started_at, completed_at,
			documents_total, documents_saved, documents_skipped, po_gate_bypassed
		FROM batch_runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.BatchCode, &run.StartedAt, &completed,
		&run.DocumentsTotal, &run.DocumentsSaved, &run.DocumentsSkipped, &run.POGateBypassed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("batch run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch run: %w", err)
	}
	if completed.Valid {
		run.CompletedAt = &completed.Time
	}
	return &run, nil
}
