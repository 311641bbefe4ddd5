package reconcile

import (
	"strings"
	"time"

	"github.com/coastalmech/apflow/internal/model"
)

// dateFormats are the input layouts tried in order before the generic
// fallbacks. MM/DD first: these documents are US-vendor invoices.
var dateFormats = []string{
	"01/02/2006",
	"01/02/06",
	"2006-01-02",
	"01-02-2006",
	"01-02-06",
}

// fallbackFormats are the last-resort layouts for vendors with unusual
// date rendering.
var fallbackFormats = []string{
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 January 2006",
	"Jan 2 2006",
	"2006.01.02",
}

// NormalizeDate reconciles a heterogeneous date string to MM/DD/YY.
// Any failure yields the empty string rather than an error.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nat") {
		return ""
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("01/02/06")
		}
	}
	for _, layout := range fallbackFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("01/02/06")
		}
	}
	return ""
}

// SyncDates enforces the cross-field rule: GL date and invoice date are
// always equal. The invoice date is the source of truth when both are
// present; a missing side is copied from the other.
func SyncDates(cand *model.CandidateRecord) {
	switch {
	case cand.InvoiceDate != "":
		cand.GLDate = cand.InvoiceDate
	case cand.GLDate != "":
		cand.InvoiceDate = cand.GLDate
	}
}
