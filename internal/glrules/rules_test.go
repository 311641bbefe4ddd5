package glrules

import (
	"testing"

	"github.com/coastalmech/apflow/internal/model"
	"github.com/stretchr/testify/assert"
)

func poToken(v string) model.IdentifierToken {
	return model.IdentifierToken{Kind: model.KindPONumber, Value: v, Raw: v}
}

func woToken(v string) model.IdentifierToken {
	return model.IdentifierToken{Kind: model.KindWONumber, Value: v, Raw: v}
}

func jobToken(v string) model.IdentifierToken {
	return model.IdentifierToken{Kind: model.KindJobNumber, Value: v, Raw: v}
}

func remarkToken(v string) model.IdentifierToken {
	return model.IdentifierToken{Kind: model.KindRemark, Value: v, Raw: v}
}

func TestResolver_Cascade(t *testing.T) {
	normalOnly := model.VendorAccounts{VendorCode: "V1", GLAccount: "6000"}
	woOnly := model.VendorAccounts{VendorCode: "V2", WOGLAccount: "7000"}
	both := model.VendorAccounts{
		VendorCode:  "V3",
		GLAccount:   "6000",
		WOGLAccount: "7000",
		PhaseCode:   "0320",
		CostType:    "M",
	}

	tests := []struct {
		name      string
		vendor    model.VendorAccounts
		ident     model.IdentifierToken
		remark    string
		wantGL    string
		wantPhase string
		wantCT    string
		wantRule  string
	}{
		{
			name:     "normal-only vendor wins regardless of remark",
			vendor:   normalOnly,
			ident:    poToken("1234"),
			remark:   "shop stock",
			wantGL:   "6000",
			wantRule: "normal-only",
		},
		{
			name:     "normal-only vendor with no identifier",
			vendor:   normalOnly,
			ident:    remarkToken(""),
			wantGL:   "6000",
			wantRule: "normal-only",
		},
		{
			name:     "work-order-only vendor",
			vendor:   woOnly,
			ident:    woToken("56789"),
			wantGL:   "7000",
			wantRule: "work-order-only",
		},
		{
			name:     "shop override beats identifier",
			vendor:   both,
			ident:    poToken("1234"),
			remark:   "shop stock",
			wantGL:   "1200",
			wantRule: "shop-override",
		},
		{
			name:     "shop override on stock remark",
			vendor:   both,
			ident:    woToken("56789"),
			remark:   "stock",
			wantGL:   "1200",
			wantRule: "shop-override",
		},
		{
			name:      "po routes to normal GL with phase and cost type",
			vendor:    both,
			ident:     poToken("1234"),
			wantGL:    "6000",
			wantPhase: "0320",
			wantCT:    "M",
			wantRule:  "po-or-job",
		},
		{
			name:      "job routes to normal GL",
			vendor:    both,
			ident:     jobToken("24.60"),
			wantGL:    "6000",
			wantPhase: "0320",
			wantCT:    "M",
			wantRule:  "po-or-job",
		},
		{
			name:     "wo routes to work-order GL",
			vendor:   both,
			ident:    woToken("56789"),
			wantGL:   "7000",
			wantRule: "wo-or-remark",
		},
		{
			name:     "free remark routes to work-order GL",
			vendor:   both,
			ident:    remarkToken("ELECTRIC WALL HTR"),
			remark:   "ELECTRIC WALL HTR",
			wantGL:   "7000",
			wantRule: "wo-or-remark",
		},
		{
			name:     "nothing matches leaves GL unresolved",
			vendor:   both,
			ident:    remarkToken(""),
			remark:   "",
			wantGL:   "",
			wantRule: "",
		},
		{
			name:     "vendor with no accounts is unresolved",
			vendor:   model.VendorAccounts{VendorCode: "V9"},
			ident:    poToken("1234"),
			wantGL:   "",
			wantRule: "",
		},
	}

	r := NewResolver(DefaultConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.vendor, tt.ident, tt.remark)
			assert.Equal(t, tt.wantGL, got.GLAccount)
			assert.Equal(t, tt.wantPhase, got.PhaseCode)
			assert.Equal(t, tt.wantCT, got.CostType)
			assert.Equal(t, tt.wantRule, got.Rule)
			assert.Equal(t, tt.wantGL != "", got.Resolved())
		})
	}
}

func TestResolver_ShopOverrideClearsJobDistribution(t *testing.T) {
	both := model.VendorAccounts{GLAccount: "6000", WOGLAccount: "7000", PhaseCode: "0320", CostType: "M"}
	r := NewResolver(DefaultConfig())

	got := r.Resolve(both, jobToken("24.60"), "shop")
	assert.Equal(t, "1200", got.GLAccount)
	assert.Empty(t, got.JobNumber)
	assert.Empty(t, got.PhaseCode)
	assert.Empty(t, got.CostType)
}

func TestResolver_WOFlag(t *testing.T) {
	both := model.VendorAccounts{GLAccount: "6000", WOGLAccount: "7000"}
	r := NewResolver(DefaultConfig())

	tests := []struct {
		name   string
		ident  model.IdentifierToken
		remark string
		want   string
	}{
		{"wo identifier sets marker", woToken("56789"), "", "2025"},
		{"non-shop remark sets marker", remarkToken("ELECTRIC WALL HTR"), "ELECTRIC WALL HTR", "2025"},
		{"shop remark does not", remarkToken("shop stock"), "shop stock", ""},
		{"po alone does not", poToken("1234"), "", ""},
		{"empty does not", remarkToken(""), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(both, tt.ident, tt.remark)
			assert.Equal(t, tt.want, got.WOFlag)
		})
	}
}

func TestResolver_RemarkNormalization(t *testing.T) {
	both := model.VendorAccounts{GLAccount: "6000", WOGLAccount: "7000"}
	r := NewResolver(DefaultConfig())

	// Case and surrounding whitespace never defeat the shop override.
	for _, remark := range []string{"SHOP STOCK", " shop stock ", "Shop Stock"} {
		got := r.Resolve(both, remarkToken(remark), remark)
		assert.Equal(t, "1200", got.GLAccount, "remark %q", remark)
	}
}
