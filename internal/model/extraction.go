package model

// RawExtraction is the per-document output of the OCR+LLM collaborator:
// seven unvalidated text fields plus the cleaned OCR text they were
// extracted from. It is immutable once produced; the reconciler owns it
// for the duration of one Reconcile call.
type RawExtraction struct {
	Document          string `json:"-"`
	GLDate            string `json:"GL_Date"`
	InvoiceNumber     string `json:"Invoice_Number"`
	InvoiceDate       string `json:"Invoice_Date"`
	InvoiceAmount     string `json:"Invoice_Amount"`
	AmountBeforeTaxes string `json:"Amount_Before_Taxes"`
	TaxAmount         string `json:"Tax_Amount"`
	ShippingCharges   string `json:"Shipping_Charges"`
	OCRText           string `json:"-"`
}
