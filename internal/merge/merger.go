// Package merge joins the per-stage outputs for one document into the
// final ledger-ready record. The join is pure: it never touches disk,
// and a missing join target yields an explicit skip, never a partial
// record.
package merge

import (
	"fmt"

	"github.com/coastalmech/apflow/internal/model"
)

// Inputs carries everything a single document accumulated across the
// pipeline stages, keyed by model.DocumentKey.
type Inputs struct {
	Candidate  model.CandidateRecord
	Vendor     model.VendorMatch
	Assignment model.GLAssignment
	Identifier model.IdentifierToken
}

// Merger stamps batch-level constants onto every record it produces.
type Merger struct {
	companyCode string
	batchCode   string
}

// NewMerger returns a merger for one batch run. batchCode is typically
// the run date in MMDDYY form.
func NewMerger(companyCode, batchCode string) *Merger {
	return &Merger{companyCode: companyCode, batchCode: batchCode}
}

// Merge joins one document's stage outputs. A nil SkippedDocument means
// the record is complete and ready for persistence.
func (m *Merger) Merge(key string, in Inputs) (model.CanonicalRecord, *model.SkippedDocument) {
	if in.Vendor.VendorCode == "" {
		return model.CanonicalRecord{}, &model.SkippedDocument{
			Document: key,
			Reason:   model.SkipNoVendorMatch,
			Detail:   "no approved vendor match for document",
		}
	}
	if !in.Assignment.Resolved() {
		return model.CanonicalRecord{}, &model.SkippedDocument{
			Document: key,
			Reason:   model.SkipGLUnresolved,
			Detail:   fmt.Sprintf("no distribution rule matched vendor %s", in.Vendor.VendorCode),
		}
	}

	rec := model.CanonicalRecord{
		Document:          key,
		CompanyCode:       m.companyCode,
		BatchCode:         m.batchCode,
		VendorCode:        in.Vendor.VendorCode,
		VendorName:        in.Vendor.VendorName,
		Type:              in.Candidate.Type,
		InvoiceNumber:     in.Candidate.InvoiceNumber,
		InvoiceDate:       in.Candidate.InvoiceDate,
		GLDate:            in.Candidate.GLDate,
		InvoiceAmount:     in.Candidate.InvoiceAmount,
		AmountBeforeTaxes: in.Candidate.AmountBeforeTaxes,
		TaxAmount:         in.Candidate.TaxAmount,
		ShippingCharges:   in.Candidate.ShippingCharges,
		GLAccount:         in.Assignment.GLAccount,
		PhaseCode:         in.Assignment.PhaseCode,
		CostType:          in.Assignment.CostType,
		JobNumber:         in.Assignment.JobNumber,
		WOFlag:            in.Assignment.WOFlag,
		RoutingCode:       in.Assignment.RoutingCode,
	}
	if rec.Type == "" {
		rec.Type = model.InvoiceTypeIncoming
	}

	// The identifier lands in exactly one column; the other two stay
	// blank so downstream imports never see a conflicting pair.
	switch in.Identifier.Kind {
	case model.KindPONumber:
		rec.PONumber = in.Identifier.Value
	case model.KindWONumber:
		rec.WONumber = in.Identifier.Value
	case model.KindRemark:
		rec.Remarks = in.Identifier.Value
	}
	// Job numbers ride in Assignment.JobNumber, already copied above.

	return rec, nil
}
