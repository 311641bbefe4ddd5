// Package reconcile turns a RawExtraction into a CandidateRecord:
// amounts cross-validated against the OCR ground truth, dates
// normalized and synchronized. Reconciliation never fails; fields that
// cannot be recovered stay absent and a Warning records which rule gave
// up.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

var (
	// ocrAmountRe matches every NNN.NN-shaped token in OCR text.
	ocrAmountRe = regexp.MustCompile(`\d[\d,]*\.\d{2}`)

	subtotalLabelRe = regexp.MustCompile(`(?i)Sub[-\s]?Total\s*[:\-]?\s*(-?\$?\d[\d,.]*)`)
	taxLabelRe      = regexp.MustCompile(`(?i)\bTax\s*[:\-]?\s*(-?\$?\d[\d,.]*)`)
)

// CleanAmount strips currency formatting and parses a raw amount field.
// A value is negative only when preceded by an explicit minus;
// accounting-style parentheses never imply a sign. Unparsable input is
// absent, not zero.
func CleanAmount(raw string) model.Money {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Money{}
	}
	for _, sym := range []string{"$", ",", "(", ")", "%", "USD"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, " ", "")
	return model.ParseMoney(s)
}

// GroundTruth collects every amount-shaped token in the OCR text into a
// deduplicated set of cents. Repaired amounts are only accepted when
// the document itself shows them somewhere.
func GroundTruth(ocrText string) map[int64]struct{} {
	truth := make(map[int64]struct{})
	for _, tok := range ocrAmountRe.FindAllString(ocrText, -1) {
		if m := model.ParseMoney(strings.ReplaceAll(tok, ",", "")); m.Valid {
			truth[m.Cents] = struct{}{}
		}
	}
	return truth
}

// Reconcile normalizes and cross-validates the amount and date fields
// of one document.
func Reconcile(raw model.RawExtraction) (model.CandidateRecord, []model.Warning) {
	var warnings []model.Warning
	warn := func(field, rule, detail string) {
		warnings = append(warnings, model.Warning{
			Document: raw.Document,
			Field:    field,
			Rule:     rule,
			Detail:   detail,
		})
	}

	invoice := CleanAmount(raw.InvoiceAmount)
	subtotal := CleanAmount(raw.AmountBeforeTaxes)
	tax := CleanAmount(raw.TaxAmount)
	shipping := CleanAmount(raw.ShippingCharges)

	truth := GroundTruth(raw.OCRText)
	inTruth := func(m model.Money) bool {
		_, ok := truth[m.Cents]
		return m.Valid && ok
	}

	// Tax present but invoice == subtotal: the model duplicated the
	// total. Recompute the subtotal, accepting it only if the document
	// shows that amount.
	if tax.IsPositive() && invoice.Valid && subtotal.Valid && invoice.Equal(subtotal) {
		est := invoice.Sub(tax)
		if inTruth(est) {
			subtotal = est
		} else {
			subtotal = model.Money{}
			warn("Amount_Before_Taxes", "tax-distinctness repair", "implied subtotal not found in OCR tokens")
		}
	}

	// Recover a missing total from subtotal + tax.
	if !invoice.Valid && subtotal.Valid && tax.Valid {
		if est := subtotal.Add(tax); inTruth(est) {
			invoice = est
		} else {
			warn("Invoice_Amount", "total recovery", "implied invoice total not found in OCR tokens")
		}
	}

	// Symmetric recovery for a missing subtotal.
	if !subtotal.Valid && invoice.Valid && tax.Valid {
		if est := invoice.Sub(tax); inTruth(est) {
			subtotal = est
		} else {
			warn("Amount_Before_Taxes", "subtotal recovery", "implied subtotal not found in OCR tokens")
		}
	}

	// Final sanity: with all three present the total must dominate and
	// the subordinate amounts must be non-negative. Violations null the
	// offending field rather than keeping an inconsistent record.
	if invoice.Valid && subtotal.Valid && tax.Valid &&
		invoice.Cents != 0 && subtotal.Cents != 0 && tax.Cents != 0 {
		if subtotal.Cents >= invoice.Cents {
			subtotal = model.Money{}
			warn("Amount_Before_Taxes", "ordering check", "subtotal not below invoice total")
		}
		if tax.Valid && tax.Cents >= invoice.Cents {
			tax = model.Money{}
			warn("Tax_Amount", "ordering check", "tax not below invoice total")
		}
		if subtotal.IsNegative() {
			subtotal = model.Money{}
			warn("Amount_Before_Taxes", "sign check", "negative subtotal")
		}
		if tax.IsNegative() {
			tax = model.Money{}
			warn("Tax_Amount", "sign check", "negative tax")
		}
	}

	// Label-proximity fallback: scan the OCR text directly for the
	// nearest Subtotal/Tax label when a field is still absent.
	if !subtotal.Valid {
		if m := subtotalLabelRe.FindStringSubmatch(raw.OCRText); m != nil {
			subtotal = CleanAmount(m[1])
		}
	}
	if !tax.Valid {
		if m := taxLabelRe.FindStringSubmatch(raw.OCRText); m != nil {
			tax = CleanAmount(m[1])
		}
	}

	// Shipping: prefer the extracted charge; otherwise derive it from
	// the residue when all principal amounts are present.
	if !shipping.Valid && invoice.Valid && subtotal.Valid && tax.Valid {
		if diff := invoice.Sub(subtotal.Add(tax)); diff.Cents != 0 {
			shipping = diff
		}
	}

	// The sign lives only in the type tag. Credit invoices store
	// magnitudes.
	var invoiceType model.InvoiceType
	if invoice.Valid {
		if invoice.IsNegative() {
			invoiceType = model.InvoiceTypeCredit
			invoice = invoice.Abs()
			subtotal = subtotal.Abs()
			tax = tax.Abs()
			shipping = shipping.Abs()
		} else {
			invoiceType = model.InvoiceTypeIncoming
		}
	}

	cand := model.CandidateRecord{
		Document:          raw.Document,
		InvoiceNumber:     raw.InvoiceNumber,
		InvoiceDate:       NormalizeDate(raw.InvoiceDate),
		GLDate:            NormalizeDate(raw.GLDate),
		InvoiceAmount:     invoice,
		AmountBeforeTaxes: subtotal,
		TaxAmount:         tax,
		ShippingCharges:   shipping,
		Type:              invoiceType,
	}
	SyncDates(&cand)

	return cand, warnings
}
