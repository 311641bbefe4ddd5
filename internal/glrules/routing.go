package glrules

import (
	"regexp"
	"strings"
)

var (
	orderedByRe    = regexp.MustCompile(`(?i)Ordered By:\s*(.+)`)
	distributionRe = regexp.MustCompile(`\b\d{4}\s+([EMS])\b`)
)

// RoutingKey identifies one row of the routing table.
type RoutingKey struct {
	OrderedBy    string
	Distribution string
}

// RoutingResolver resolves the per-invoice approval-routing code from
// the matched purchase-order document text. Absence of either the
// ordered-by person or the distribution marker yields an empty code,
// never a default.
type RoutingResolver struct {
	table   map[RoutingKey]string
	pmByJob map[string]string
	pmNames map[string]string
}

// NewRoutingResolver builds a resolver over the routing table. pmByJob
// (job number -> project-manager code) and pmNames (code -> full name)
// are optional; when present the PM assigned to the job replaces the
// ordered-by name scanned from the document, matching how the routing
// table is keyed.
func NewRoutingResolver(table map[RoutingKey]string, pmByJob, pmNames map[string]string) *RoutingResolver {
	return &RoutingResolver{table: table, pmByJob: pmByJob, pmNames: pmNames}
}

// ExtractRoutingFields scans purchase-order text for the "Ordered By:"
// label and the 4-digit-plus-letter distribution marker. First match
// only.
func ExtractRoutingFields(poText string) (orderedBy, distribution string) {
	if m := orderedByRe.FindStringSubmatch(poText); m != nil {
		orderedBy = strings.TrimSpace(m[1])
	}
	if m := distributionRe.FindStringSubmatch(poText); m != nil {
		distribution = m[1]
	}
	return orderedBy, distribution
}

// Resolve returns the routing code for a document given its matched PO
// text and job number.
func (r *RoutingResolver) Resolve(poText, jobNumber string) string {
	orderedBy, distribution := ExtractRoutingFields(poText)

	if jobNumber != "" {
		if code, ok := r.pmByJob[jobNumber]; ok {
			if name, ok := r.pmNames[code]; ok {
				orderedBy = name
			}
		}
	}

	if orderedBy == "" || distribution == "" {
		return ""
	}

	key := RoutingKey{
		OrderedBy:    strings.ToUpper(strings.TrimSpace(orderedBy)),
		Distribution: strings.ToUpper(strings.TrimSpace(distribution)),
	}
	return r.table[key]
}
