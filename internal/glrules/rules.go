// Package glrules resolves the accounting tuple for a document: the
// distribution GL account via a prioritized rule cascade, the
// work-order flag, and the approval-routing code. The cascade is an
// ordered list of guard/action pairs evaluated top to bottom; the first
// matching branch wins, and no branch matching leaves the assignment
// explicitly unresolved.
package glrules

import (
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

// Config carries the accounting constants the cascade depends on.
// These are configuration data, not computed values.
type Config struct {
	// ShopGLAccount is the shop-expense account forced by the shop
	// remark override.
	ShopGLAccount string
	// WOMarker is the fixed value written to the work-order flag.
	WOMarker string
	// ShopRemarks are the normalized remarks that trigger the shop
	// override. The misspellings are deliberate: they appear on real
	// invoices.
	ShopRemarks []string
}

// DefaultConfig returns the production accounting constants.
func DefaultConfig() Config {
	return Config{
		ShopGLAccount: "1200",
		WOMarker:      "2025",
		ShopRemarks:   []string{"shop", "stock", "shop stock", "shop fab", "shop sab"},
	}
}

// ruleInput is the evaluation context shared by every guard.
type ruleInput struct {
	vendor model.VendorAccounts
	ident  model.IdentifierToken
	remark string // normalized: trimmed, lower-cased
}

// rule is one guard/action pair of the cascade.
type rule struct {
	guard func(in ruleInput) bool
	apply func(a *model.GLAssignment, in ruleInput)
	name  string
}

// Resolver applies the GL cascade.
type Resolver struct {
	shopRemarks map[string]struct{}
	rules       []rule
	cfg         Config
}

// NewResolver builds a resolver with the cascade in decision order.
func NewResolver(cfg Config) *Resolver {
	r := &Resolver{cfg: cfg, shopRemarks: make(map[string]struct{})}
	for _, s := range cfg.ShopRemarks {
		r.shopRemarks[s] = struct{}{}
	}

	both := func(in ruleInput) bool {
		return in.vendor.GLAccount != "" && in.vendor.WOGLAccount != ""
	}

	r.rules = []rule{
		{
			name: "normal-only",
			guard: func(in ruleInput) bool {
				return in.vendor.GLAccount != "" && in.vendor.WOGLAccount == ""
			},
			apply: func(a *model.GLAssignment, in ruleInput) {
				a.GLAccount = in.vendor.GLAccount
			},
		},
		{
			name: "work-order-only",
			guard: func(in ruleInput) bool {
				return in.vendor.WOGLAccount != "" && in.vendor.GLAccount == ""
			},
			apply: func(a *model.GLAssignment, in ruleInput) {
				a.GLAccount = in.vendor.WOGLAccount
			},
		},
		{
			name: "shop-override",
			guard: func(in ruleInput) bool {
				return both(in) && r.isShopRemark(in.remark)
			},
			apply: func(a *model.GLAssignment, _ ruleInput) {
				// Shop expenses carry no job distribution.
				a.GLAccount = r.cfg.ShopGLAccount
				a.PhaseCode = ""
				a.CostType = ""
				a.JobNumber = ""
			},
		},
		{
			name: "po-or-job",
			guard: func(in ruleInput) bool {
				return both(in) && in.ident.HasPOOrJob()
			},
			apply: func(a *model.GLAssignment, in ruleInput) {
				a.GLAccount = in.vendor.GLAccount
				a.PhaseCode = in.vendor.PhaseCode
				a.CostType = in.vendor.CostType
			},
		},
		{
			name: "wo-or-remark",
			guard: func(in ruleInput) bool {
				return both(in) && (in.ident.Kind == model.KindWONumber || in.remark != "")
			},
			apply: func(a *model.GLAssignment, in ruleInput) {
				a.GLAccount = in.vendor.WOGLAccount
			},
		},
	}
	return r
}

// Resolve runs the cascade for one document. The returned assignment
// has an empty GLAccount when no rule fires; callers must treat that as
// "unresolved", never as a default.
func (r *Resolver) Resolve(vendor model.VendorAccounts, ident model.IdentifierToken, remark string) model.GLAssignment {
	in := ruleInput{
		vendor: vendor,
		ident:  ident,
		remark: normalizeRemark(remark),
	}

	var assign model.GLAssignment
	if ident.Kind == model.KindJobNumber {
		assign.JobNumber = ident.Value
	}

	for _, rl := range r.rules {
		if rl.guard(in) {
			rl.apply(&assign, in)
			assign.Rule = rl.name
			break
		}
	}

	assign.WOFlag = r.woFlag(in, assign.GLAccount)
	return assign
}

// woFlag derives the work-order output field, independently of which
// cascade branch fired.
func (r *Resolver) woFlag(in ruleInput, glAccount string) string {
	if in.ident.Kind == model.KindWONumber {
		return r.cfg.WOMarker
	}
	if in.remark != "" && !r.isShopRemark(in.remark) && glAccount != r.cfg.ShopGLAccount {
		return r.cfg.WOMarker
	}
	return ""
}

func (r *Resolver) isShopRemark(remark string) bool {
	_, ok := r.shopRemarks[remark]
	return ok
}

func normalizeRemark(remark string) string {
	return strings.ToLower(strings.TrimSpace(remark))
}
