package model

// GLAssignment is the resolved accounting tuple for one document. An
// empty GLAccount is the explicit "unresolved" state: no cascade rule
// fired, and the document will be skipped rather than defaulted.
type GLAssignment struct {
	GLAccount   string
	PhaseCode   string
	CostType    string
	JobNumber   string
	WOFlag      string
	RoutingCode string
	// Rule names the cascade branch that resolved the account,
	// for the audit log.
	Rule string
}

// Resolved reports whether any cascade rule assigned a GL account.
func (a GLAssignment) Resolved() bool {
	return a.GLAccount != ""
}
