package model

// IdentifierKind is the mutually exclusive classification of a raw
// PO/Job candidate string. Classification is total: every input maps
// to exactly one kind, with Remark as the catch-all.
type IdentifierKind string

// Identifier kinds.
const (
	KindPONumber  IdentifierKind = "po"     // exactly 4 digits
	KindWONumber  IdentifierKind = "wo"     // exactly 5 digits
	KindJobNumber IdentifierKind = "job"    // NN.NN[N]
	KindRemark    IdentifierKind = "remark" // anything else
)

// IdentifierToken is a classified identifier string extracted from a
// document image. Value holds the normalized identifier (or the
// verbatim trimmed remark); Raw preserves the collaborator's output.
type IdentifierToken struct {
	Raw   string
	Value string
	Kind  IdentifierKind
}

// Empty reports whether no identifier was found at all: a Remark token
// with no content.
func (t IdentifierToken) Empty() bool {
	return t.Kind == KindRemark && t.Value == ""
}

// HasPOOrJob reports whether the token routes through the job-costed
// GL branch.
func (t IdentifierToken) HasPOOrJob() bool {
	return t.Kind == KindPONumber || t.Kind == KindJobNumber
}
