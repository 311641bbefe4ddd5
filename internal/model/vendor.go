package model

// MatchQuality describes how a vendor match was established by the
// fuzzy-matching collaborator.
type MatchQuality string

// Match quality descriptors, verbatim from the matcher's output.
const (
	MatchContactAndAddress MatchQuality = "contact + address"
	MatchAddressOnly       MatchQuality = "address only"
	MatchContactOnly       MatchQuality = "contact only"
)

// VendorMatch maps a source document to a vendor code/name pair. It is
// produced by an external matcher; the engine only consumes the
// approved subset.
type VendorMatch struct {
	Document     string
	VendorCode   string
	VendorName   string
	AddressScore int
	MatchedBy    MatchQuality
}

// VendorAccounts is one row of the vendor lookup table: the accounting
// codes configured for a vendor. Either GL account may be blank; the
// resolution cascade depends on which are present.
type VendorAccounts struct {
	VendorCode string
	VendorName string
	// GLAccount is the "normal" distribution GL account.
	GLAccount string
	// WOGLAccount is the work-order GL account.
	WOGLAccount string
	PhaseCode   string
	CostType    string
}
