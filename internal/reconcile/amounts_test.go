package reconcile

import (
	"testing"

	"github.com/coastalmech/apflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		wantValid bool
	}{
		{"plain", "1050.00", "1050.00", true},
		{"currency and commas", "$48,529.29", "48529.29", true},
		{"parentheses are not a sign", "(1,200.50)", "1200.50", true},
		{"explicit minus", "-50.00", "-50.00", true},
		{"minus inside parentheses", "($-25.00)", "-25.00", true},
		{"percent noise", "8.25%", "8.25", true},
		{"usd suffix", "125.00 USD", "125.00", true},
		{"whole number", "45", "45.00", true},
		{"empty", "", "", false},
		{"garbage", "N/A", "", false},
		{"words", "no charge", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanAmount(tt.in)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestGroundTruth(t *testing.T) {
	truth := GroundTruth("Subtotal 1,000.00\nTax 50.00\nTotal Due 1,050.00\nTax 50.00")
	assert.Len(t, truth, 3)
	_, ok := truth[105000]
	assert.True(t, ok)
}

func TestReconcile_EndToEnd(t *testing.T) {
	raw := model.RawExtraction{
		Document:          "inv_100",
		InvoiceAmount:     "$1,050.00",
		AmountBeforeTaxes: "$1,000.00",
		TaxAmount:         "$50.00",
		OCRText:           "Subtotal 1,000.00 Tax 50.00 Total Due 1,050.00",
	}

	cand, warnings := Reconcile(raw)
	assert.Empty(t, warnings)
	assert.Equal(t, "1050.00", cand.InvoiceAmount.String())
	assert.Equal(t, "1000.00", cand.AmountBeforeTaxes.String())
	assert.Equal(t, "50.00", cand.TaxAmount.String())
	assert.Equal(t, model.InvoiceTypeIncoming, cand.Type)
}

func TestReconcile_TaxDistinctnessRepair(t *testing.T) {
	// Model duplicated the total into the subtotal field; the true
	// subtotal appears in the OCR text and is recovered.
	raw := model.RawExtraction{
		Document:          "inv_101",
		InvoiceAmount:     "1050.00",
		AmountBeforeTaxes: "1050.00",
		TaxAmount:         "50.00",
		OCRText:           "Subtotal 1,000.00 Tax 50.00 Total 1,050.00",
	}

	cand, warnings := Reconcile(raw)
	assert.Empty(t, warnings)
	assert.Equal(t, "1000.00", cand.AmountBeforeTaxes.String())
	assert.NotEqual(t, cand.InvoiceAmount.String(), cand.AmountBeforeTaxes.String())
}

func TestReconcile_TaxDistinctnessRepairRejected(t *testing.T) {
	// The implied subtotal never appears in the document: null it out
	// instead of inventing an amount. The label fallback must not
	// resurrect the duplicated total either.
	raw := model.RawExtraction{
		Document:          "inv_102",
		InvoiceAmount:     "1050.00",
		AmountBeforeTaxes: "1050.00",
		TaxAmount:         "50.00",
		OCRText:           "Total 1,050.00 Tax 50.00",
	}

	cand, warnings := Reconcile(raw)
	require.NotEmpty(t, warnings)
	assert.False(t, cand.AmountBeforeTaxes.Valid)
	assert.Equal(t, "implied subtotal not found in OCR tokens", warnings[0].Detail)
}

func TestReconcile_RecoverMissingTotal(t *testing.T) {
	raw := model.RawExtraction{
		Document:          "inv_103",
		AmountBeforeTaxes: "1000.00",
		TaxAmount:         "50.00",
		OCRText:           "Subtotal 1,000.00 Tax 50.00 Amount Due 1,050.00",
	}

	cand, warnings := Reconcile(raw)
	assert.Empty(t, warnings)
	assert.Equal(t, "1050.00", cand.InvoiceAmount.String())
}

func TestReconcile_RecoverMissingSubtotal(t *testing.T) {
	raw := model.RawExtraction{
		Document:      "inv_104",
		InvoiceAmount: "1050.00",
		TaxAmount:     "50.00",
		OCRText:       "1,000.00 Tax 50.00 Total 1,050.00",
	}

	cand, warnings := Reconcile(raw)
	assert.Empty(t, warnings)
	assert.Equal(t, "1000.00", cand.AmountBeforeTaxes.String())
}

func TestReconcile_OrderingViolationNullsField(t *testing.T) {
	raw := model.RawExtraction{
		Document:          "inv_105",
		InvoiceAmount:     "100.00",
		AmountBeforeTaxes: "250.00",
		TaxAmount:         "8.00",
		OCRText:           "Total 100.00 250.00 Tax 8.00",
	}

	cand, warnings := Reconcile(raw)
	require.NotEmpty(t, warnings)
	assert.True(t, cand.InvoiceAmount.Valid)
	assert.False(t, cand.AmountBeforeTaxes.Valid)
	assert.True(t, cand.TaxAmount.Valid)
}

func TestReconcile_LabelFallback(t *testing.T) {
	raw := model.RawExtraction{
		Document:      "inv_106",
		InvoiceAmount: "108.25",
		OCRText:       "Sub-Total: $100.00\nTax: 8.25\nTotal Due 108.25",
	}

	cand, _ := Reconcile(raw)
	assert.Equal(t, "100.00", cand.AmountBeforeTaxes.String())
	assert.Equal(t, "8.25", cand.TaxAmount.String())
}

func TestReconcile_CreditInvoice(t *testing.T) {
	raw := model.RawExtraction{
		Document:      "credit_01",
		InvoiceAmount: "-250.00",
		OCRText:       "Credit Memo 250.00",
	}

	cand, _ := Reconcile(raw)
	assert.Equal(t, model.InvoiceTypeCredit, cand.Type)
	assert.Equal(t, "250.00", cand.InvoiceAmount.String())
	assert.False(t, cand.InvoiceAmount.IsNegative())
}

func TestReconcile_ShippingResidue(t *testing.T) {
	raw := model.RawExtraction{
		Document:          "inv_107",
		InvoiceAmount:     "1075.50",
		AmountBeforeTaxes: "1000.00",
		TaxAmount:         "50.00",
		OCRText:           "Subtotal 1,000.00 Tax 50.00 Freight 25.50 Total 1,075.50",
	}

	cand, _ := Reconcile(raw)
	assert.Equal(t, "25.50", cand.ShippingCharges.String())
}

func TestReconcile_NoShippingResidueWhenBalanced(t *testing.T) {
	raw := model.RawExtraction{
		Document:          "inv_108",
		InvoiceAmount:     "1050.00",
		AmountBeforeTaxes: "1000.00",
		TaxAmount:         "50.00",
		OCRText:           "Subtotal 1,000.00 Tax 50.00 Total 1,050.00",
	}

	cand, _ := Reconcile(raw)
	assert.False(t, cand.ShippingCharges.Valid)
}

func TestReconcile_TaxDistinctnessInvariant(t *testing.T) {
	// Property from the design: whenever tax > 0 the reconciled
	// invoice amount and subtotal must differ.
	raws := []model.RawExtraction{
		{InvoiceAmount: "500.00", AmountBeforeTaxes: "500.00", TaxAmount: "41.25", OCRText: "458.75 41.25 500.00"},
		{InvoiceAmount: "500.00", AmountBeforeTaxes: "500.00", TaxAmount: "41.25", OCRText: "500.00 41.25"},
		{InvoiceAmount: "99.00", AmountBeforeTaxes: "90.00", TaxAmount: "9.00", OCRText: "90.00 9.00 99.00"},
	}
	for _, raw := range raws {
		cand, _ := Reconcile(raw)
		if cand.TaxAmount.IsPositive() && cand.InvoiceAmount.Valid && cand.AmountBeforeTaxes.Valid {
			assert.NotEqual(t, cand.InvoiceAmount.Cents, cand.AmountBeforeTaxes.Cents)
		}
	}
}
