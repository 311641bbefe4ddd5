package model

import (
	"path/filepath"
	"strings"
)

// DocumentKey normalizes a filename into the join key shared by every
// per-stage output: lower-cased, extension stripped.
func DocumentKey(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	return strings.ToLower(strings.TrimSuffix(base, ext))
}

// CanonicalRecord is the fully reconciled, vendor-resolved, GL-assigned
// invoice record ready for ledger import. Created once per document
// after both approval gates have passed; never mutated afterwards.
type CanonicalRecord struct {
	Document          string
	CompanyCode       string
	BatchCode         string
	VendorCode        string
	VendorName        string
	Type              InvoiceType
	InvoiceNumber     string
	InvoiceDate       string
	GLDate            string
	InvoiceAmount     Money
	AmountBeforeTaxes Money
	TaxAmount         Money
	ShippingCharges   Money
	PONumber          string
	JobNumber         string
	WONumber          string
	Remarks           string
	GLAccount         string
	PhaseCode         string
	CostType          string
	WOFlag            string
	RoutingCode       string
}

// SkipReason codes the join failures that remove a document from a
// batch without blocking the others.
type SkipReason string

// Skip reasons.
const (
	SkipUnparsablePayload SkipReason = "unparsable_payload"
	SkipNoVendorMatch     SkipReason = "no_vendor_match"
	SkipVendorNotInTable  SkipReason = "vendor_not_in_table"
	SkipVendorRejected    SkipReason = "vendor_rejected"
	SkipGLUnresolved      SkipReason = "gl_unresolved"
)

// SkippedDocument is one entry of the structured failure log: the
// document, why it was dropped, and the raw payload for forensics.
type SkippedDocument struct {
	Document   string
	Reason     SkipReason
	Detail     string
	RawPayload string
}
