package model

// InvoiceType tags a record as a normal incoming invoice or a credit.
type InvoiceType string

// Invoice type values as the ERP import expects them.
const (
	InvoiceTypeIncoming InvoiceType = "I"
	InvoiceTypeCredit   InvoiceType = "C"
)

// CandidateRecord holds one document's amounts reconciled to cents and
// dates normalized to MM/DD/YY. For credit invoices every monetary
// field is a non-negative magnitude; the sign lives only in Type.
type CandidateRecord struct {
	Document          string
	InvoiceNumber     string
	InvoiceDate       string
	GLDate            string
	InvoiceAmount     Money
	AmountBeforeTaxes Money
	TaxAmount         Money
	ShippingCharges   Money
	Type              InvoiceType
}

// Complete reports whether the three principal amounts survived
// reconciliation.
func (c CandidateRecord) Complete() bool {
	return c.InvoiceAmount.Valid && c.AmountBeforeTaxes.Valid && c.TaxAmount.Valid
}

// Warning records a reconciliation rule that could not be satisfied.
// Warnings never abort processing; the record is still produced,
// marked incomplete.
type Warning struct {
	Document string
	Field    string
	Rule     string
	Detail   string
}

func (w Warning) String() string {
	return w.Rule + ": " + w.Detail
}
